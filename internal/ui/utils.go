package ui

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var (
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed)
	success = color.New(color.FgGreen)
	info    = color.New(color.FgBlue)
)

// PrintWarning displays a warning message with consistent formatting
func PrintWarning(message string) {
	warning.Println("\nWarning:")
	warning.Println(message)
}

// PrintError displays an error message with consistent formatting
func PrintError(message string) {
	failure.Printf("\nError: %s\n", message)
}

// PrintSuccess displays a success message with consistent formatting
func PrintSuccess(message string) {
	success.Printf("\n%s\n", message)
}

// PrintInfo displays an info message with consistent formatting
func PrintInfo(message string) {
	info.Print(message)
}

var stdin = bufio.NewReader(os.Stdin)

// ReadString reads a string from stdin with trimming
func ReadString(prompt string) string {
	PrintInfo(prompt)
	input, _ := stdin.ReadString('\n')
	return strings.TrimSpace(input)
}

// ReadInt reads an integer from stdin with validation
func ReadInt(prompt string, min, max int) (int, error) {
	input := ReadString(prompt)
	value, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}

	if value < min || value > max {
		return 0, fmt.Errorf("value must be between %d and %d", min, max)
	}

	return value, nil
}
