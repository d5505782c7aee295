// Package ldbstore implements an ipd.ResultStore that keeps completed
// results on disk in a LevelDB database, so that long parameter sweeps
// can be interrupted and resumed without recomputing finished jobs.
package ldbstore
