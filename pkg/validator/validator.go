package validator

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// All returns the first non-nil error.
func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

type Validatable interface {
	Validate() error
}

func Each[T Validatable](items []T) error {
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func Map[T any](items []T, f func(T, string) error, description string) error {
	for i, item := range items {
		if err := f(item, fmt.Sprintf("%s[%d]", description, i)); err != nil {
			return err
		}
	}
	return nil
}

func NotEmpty(field, description string) error {
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

func NoDuplicates[T comparable](slice []T, description string) error {
	seen := make(map[T]struct{})
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s contains duplicate value: %v", description, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	if !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

// NotNegative rejects durations below zero.
func NotNegative(d time.Duration, description string) error {
	if d < 0 {
		return fmt.Errorf("%s must not be negative, got %s", description, d)
	}
	return nil
}

// HasNoTags rejects values that would be read as template tags.
func HasNoTags(field string, description string) error {
	if strings.Contains(field, "{{") || strings.Contains(field, "}}") {
		return fmt.Errorf("%s must not contain template tags", description)
	}
	return nil
}

// FileExtension requires a leading dot and no path separators.
func FileExtension(field, description string) error {
	if !strings.HasPrefix(field, ".") || len(field) < 2 || strings.ContainsAny(field, `/\`) {
		return fmt.Errorf("%s must look like .ext, got %q", description, field)
	}
	return nil
}
