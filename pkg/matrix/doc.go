// Package matrix reads square matrices from plain-text files and computes
// their determinant by cofactor expansion along the first row.
//
// A matrix file holds one row per line, entries separated by whitespace:
//
//	1 2 3
//	0 1 4
//	5 6 0
//
// An empty file is the 0x0 matrix, whose determinant is 1.
package matrix
