// Package helper provides shared helpers for lending store integration tests.
package helper
