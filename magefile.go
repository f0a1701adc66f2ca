//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the growlog binary into bin/, stamping the version from
// GROWLOG_VERSION when it is set.
func Build() error {
	args := []string{"build", "-o", "./bin/growlog"}
	if v := os.Getenv("GROWLOG_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X main.version="+v)
	}
	fmt.Println("Building growlog...")
	return sh.RunV("go", append(args, "./cmd/growlog")...)
}

// Test runs the unit tests. Store tests against live servers skip unless
// their DSN variables are set.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestLive runs the store tests against real MySQL and PostgreSQL servers.
// Set GROWLOG_TEST_MYSQL_DSN and GROWLOG_TEST_POSTGRES_DSN first.
func TestLive() error {
	if os.Getenv("GROWLOG_TEST_MYSQL_DSN") == "" && os.Getenv("GROWLOG_TEST_POSTGRES_DSN") == "" {
		return fmt.Errorf("neither GROWLOG_TEST_MYSQL_DSN nor GROWLOG_TEST_POSTGRES_DSN is set")
	}
	fmt.Println("Running live store tests...")
	return sh.RunV("go", "test", "-v", "-run", "^TestLiveServer$", "./store/...")
}

// Import runs growlog on the given comma separated file list.
func Import(files string) error {
	mg.Deps(Build)
	args := append([]string{"--create-table"}, strings.Split(files, ",")...)
	return sh.RunV("./bin/growlog", args...)
}

// Clean removes bin/ and the default sqlite database.
func Clean() error {
	for _, path := range []string{"bin", "growlog.db"} {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}

// Check fails when a file is not gofmt'ed, then runs go vet.
func Check() error {
	out, err := sh.Output("gofmt", "-l", "cmd", "config", "importer", "logging", "record", "source", "store", "magefile.go")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return sh.RunV("go", "vet", "./...")
}
