package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	calls   []string
	err     error
	version uint
	dirty   bool
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.err
}

func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	return f.err
}

func (f *fakeMigrator) Migrate(version uint) error {
	f.calls = append(f.calls, "migrate")
	f.version = version
	return f.err
}

func (f *fakeMigrator) Force(version int) error {
	f.calls = append(f.calls, "force")
	f.version = uint(version)
	f.dirty = false
	return f.err
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	f.calls = append(f.calls, "version")
	return f.version, f.dirty, f.err
}

func TestRun_UpTreatsNoChangeAsSuccess(t *testing.T) {
	m := &fakeMigrator{err: migrate.ErrNoChange}
	require.NoError(t, run(m, []string{"up"}))
	assert.Equal(t, []string{"up"}, m.calls)
}

func TestRun_UpReportsFailure(t *testing.T) {
	m := &fakeMigrator{err: errors.New("syntax error near price")}
	assert.ErrorContains(t, run(m, []string{"up"}), "syntax error")
}

func TestRun_DownRollsBackOneStep(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"down"}))
	assert.Equal(t, []string{"steps"}, m.calls)
}

func TestRun_GotoAndForceParseVersion(t *testing.T) {
	m := &fakeMigrator{dirty: true}
	require.NoError(t, run(m, []string{"goto", "1"}))
	assert.Equal(t, uint(1), m.version)

	require.NoError(t, run(m, []string{"force", "2"}))
	assert.Equal(t, uint(2), m.version)
	assert.False(t, m.dirty)

	assert.ErrorIs(t, run(m, []string{"force"}), errUsage)
	assert.ErrorContains(t, run(m, []string{"goto", "-1"}), "invalid version number")
}

func TestRun_StatusWithoutMigrations(t *testing.T) {
	m := &fakeMigrator{err: migrate.ErrNilVersion}
	require.NoError(t, run(m, []string{"status"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	m := &fakeMigrator{}
	assert.ErrorIs(t, run(m, nil), errUsage)
	assert.ErrorIs(t, run(m, []string{"seed"}), errUsage)
	assert.Empty(t, m.calls)
}

func TestPrintUsage_ListsCommands(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	for _, cmd := range []string{"up", "down", "goto N", "force N", "status"} {
		assert.Contains(t, buf.String(), cmd)
	}
}
