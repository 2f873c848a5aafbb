package errors

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitkit/internal/actions"
	"github.com/julianstephens/habitkit/internal/keyring"
	"github.com/julianstephens/habitkit/internal/logger"
	"github.com/julianstephens/habitkit/internal/migration"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/storage"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint suggests a next step for errors the user can fix, or "" if there is none.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, storage.ErrNotInitialized):
		return "run 'habitkit init' to create the database"
	case errors.Is(err, storage.ErrNotFound):
		return "run 'habitkit habit list' to see habit names and IDs"
	case errors.Is(err, actions.ErrArchived):
		return "run 'habitkit habit restore' first"
	case errors.Is(err, models.ErrInvalidHabit):
		return "check the habit's name, target, schedule and reminder time (HH:MM)"
	case errors.Is(err, migration.ErrSchemaTooNew):
		return "this database was written by a newer habitkit; upgrade before using it"
	case errors.Is(err, keyring.ErrNotFound):
		return "run 'habitkit keyring set' or set HABITKIT_DB_CONNECTION"
	}
	return ""
}

// Print writes the formatted error and its hint, if any, to w.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, Format(err))
	if hint := Hint(err); hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		Print(os.Stderr, err)
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
