// Package utils provides small conversion helpers shared by the CLI and the console API,
// mainly for loosely typed input such as query strings and flag values.
package utils
