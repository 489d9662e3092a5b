// Package preflight provides readiness checks for the programs, directories,
// and services podcastproc depends on.
//
// The CLI "podcastproc status" command runs RunAll and renders the results.
// Checks never mutate state beyond a short-lived probe file in each
// directory they test.
package preflight
