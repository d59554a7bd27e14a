package shparse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub019/internal/cerr"
)

func TestParse_ReturnsAstForValidScript(t *testing.T) {
	res, err := Parse(context.Background(), "echo hi\n", Options{Filename: "t.sh"})
	require.NoError(t, err)
	assert.NotNil(t, res.File)
	assert.Equal(t, POSIX, res.ShellKind)
	assert.Empty(t, res.Diagnostics)
}

func TestParse_DefaultsToBashForUnknownFilename(t *testing.T) {
	res, err := Parse(context.Background(), "echo hi\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, Bash, res.ShellKind)
	assert.Equal(t, "<input>", res.FileID)
}

func TestParse_HintOutranksExtension(t *testing.T) {
	res, err := Parse(context.Background(), "echo hi\n", Options{
		Filename: "t.sh", ShellHint: Zsh, HintSet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, Zsh, res.ShellKind)
}

func TestParse_RecoversSyntaxErrorsAsDiagnostics(t *testing.T) {
	res, err := Parse(context.Background(), "if true; then\n", Options{Filename: "t.sh"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, "PARSE", res.Diagnostics[0].Code)
}

func TestParse_RejectsOversizedSource(t *testing.T) {
	_, err := Parse(context.Background(), "echo hi\n", Options{MaxBytes: 4})
	require.Error(t, err)
	var budgetErr *cerr.BudgetError
	assert.ErrorAs(t, err, &budgetErr)
}

func TestParse_RejectsPastDeadline(t *testing.T) {
	_, err := Parse(context.Background(), "echo hi\n", Options{Deadline: time.Now().Add(-time.Minute)})
	require.Error(t, err)
	var budgetErr *cerr.BudgetError
	assert.ErrorAs(t, err, &budgetErr)
}

func TestDetectShellKind_ShellcheckDirectiveOutranksShebang(t *testing.T) {
	src := "#!/bin/bash\n# shellcheck shell=sh\necho hi\n"
	assert.Equal(t, POSIX, DetectShellKind(src, "t.sh", Bash, false))
}

func TestDetectShellKind_ShebangOutranksExtension(t *testing.T) {
	src := "#!/usr/bin/env zsh\necho hi\n"
	assert.Equal(t, Zsh, DetectShellKind(src, "t.sh", Bash, false))
}

func TestDetectShellKind_FallsBackToExtension(t *testing.T) {
	assert.Equal(t, POSIX, DetectShellKind("echo hi\n", "deploy.sh", Bash, false))
	assert.Equal(t, Bash, DetectShellKind("echo hi\n", "deploy.bash", Bash, false))
}

func TestDetectShellKind_DotfileByName(t *testing.T) {
	assert.Equal(t, Zsh, DetectShellKind("echo hi\n", "/home/u/.zshrc", Bash, false))
}

func TestShellKind_String(t *testing.T) {
	assert.Equal(t, "bash", Bash.String())
	assert.Equal(t, "sh", POSIX.String())
	assert.Equal(t, "zsh", Zsh.String())
	assert.Equal(t, "ksh", Ksh.String())
}
