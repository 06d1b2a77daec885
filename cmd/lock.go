// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/airstream/izonectl/pkg/izone"
	"github.com/airstream/izonectl/pkg/session"
)

var lockDays int

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the system with a 6 digit code",
	Long: `Lock the controller so front panel changes need the code.

The code is read from the IZONE_LOCK_CODE environment variable, or
prompted without echo if not set. The --code flag is intentionally not
provided to keep codes out of shell history.`,
	RunE: runLock(true),
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the system",
	RunE:  runLock(false),
}

func init() {
	lockCmd.Flags().IntVar(&lockDays, "days", 0, "Auto-unlock after this many days (0 keeps it locked)")
	rootCmd.AddCommand(lockCmd, unlockCmd)
}

// getLockCode retrieves the code from environment or prompts the user
func getLockCode() (string, error) {
	if code := os.Getenv("IZONE_LOCK_CODE"); code != "" {
		return code, nil
	}

	fmt.Fprint(os.Stderr, "Lock code: ")
	codeBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		code, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read lock code: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(code), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(codeBytes), nil
}

func runLock(lock bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		code, err := getLockCode()
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, s *session.Session) (*izone.Command, error) {
			return izone.NewLockSystemCommand(s.Validator(), lock, code, lockDays)
		})
	}
}
