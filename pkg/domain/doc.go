// Package domain contains the core entities of a check run: validated domain
// names, compromise matches, and the run summary. These types carry no
// infrastructure concerns and are shared across packages.
package domain
