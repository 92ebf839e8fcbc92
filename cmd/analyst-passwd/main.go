/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pgedge-sales-analyst/internal/auth"
)

var outputFile string

var rootCmd = &cobra.Command{
	Use:   "analyst-passwd",
	Short: "pgEdge Sales Analyst password tool - generate and verify dashboard password hashes",
	Long: `analyst-passwd generates the bcrypt hash the dashboard checks logins against.

Write the hash to a file referenced by auth.password_hash_file (the server
reloads it on change), or export it as HASHED_PASSWORD before starting
the server.`,
}

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Prompt for a password and print its bcrypt hash",
	RunE:  runHash,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <hash-or-file>",
	Short: "Prompt for a password and check it against a hash",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	hashCmd.Flags().StringVarP(&outputFile, "output", "o", "",
		"Write the hash to this file instead of stdout")
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runHash(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(hash+"\n"), 0600); err != nil {
			return fmt.Errorf("failed to write hash file: %w", err)
		}
		fmt.Printf("Wrote hash to %s\n", outputFile)
		return nil
	}

	fmt.Println(hash)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	hash := strings.TrimSpace(args[0])

	// The argument may be a path to a hash file
	if data, err := os.ReadFile(hash); err == nil {
		hash = strings.TrimSpace(string(data))
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	if err := auth.VerifyPassword(password, hash); err != nil {
		return fmt.Errorf("password does not match")
	}

	fmt.Println("Password matches")
	return nil
}

// promptPassword reads a password without echoing when stdin is a terminal
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	// Piped input (scripts, tests)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
