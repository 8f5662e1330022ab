// Package version compares LineageOS version strings.
//
// Accepted forms are "lineage-22.2", "lineage-22", "22.2" and "22"; all of
// them normalize to MAJOR.MINOR, so "lineage-22" equals "22.0". Minor
// versions compare numerically: 1.12 is newer than 1.2. Strings that do not
// normalize are invalid and sort before every valid version.
package version
