// Package utils contains small helpers shared across the module.
package utils
