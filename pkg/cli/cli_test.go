package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"fre_viewer/pkg/core/catalog"
)

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	if got := outputPath("", "FRE_X_8.4.pdf"); got != "FRE_X_8.4.pdf" {
		t.Errorf("expected derived name, got %s", got)
	}
	if got := outputPath(dir, "FRE_X_8.4.pdf"); got != filepath.Join(dir, "FRE_X_8.4.pdf") {
		t.Errorf("expected name inside dir, got %s", got)
	}
	file := filepath.Join(dir, "custom.pdf")
	if got := outputPath(file, "FRE_X_8.4.pdf"); got != file {
		t.Errorf("expected explicit file, got %s", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"companies": false, "items": false, "url": false, "get": false, "summarize": false, "enrich": false, "history": false}
	for _, c := range RootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %s not registered", name)
		}
	}
}

func TestCmdErr_KeepsCauseAndReason(t *testing.T) {
	err := cmdErr("resolve", catalog.ErrNotFound)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected wrapped ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "resolve") || !strings.Contains(err.Error(), "(not_found)") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCommands_ReturnErrors(t *testing.T) {
	old := configPath
	defer func() { configPath = old }()
	configPath = filepath.Join(t.TempDir(), "missing.yaml")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	runs := map[string]func(*cobra.Command, []string) error{
		"companies": runCompanies,
		"url":       runURL,
		"get":       runGetDocument,
		"history":   runHistory,
	}
	for name, run := range runs {
		err := run(cmd, []string{"ACME"})
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s: expected config error to be returned, got %v", name, err)
		}
	}
}
