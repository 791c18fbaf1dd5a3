package ckptsync

import (
	"errors"

	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
)

// Construction errors returned by New.
var (
	// ErrMissingCompare indicates Config.Compare is nil.
	ErrMissingCompare = ckerr.Misuse("compare", "a compare function is required; it receives the best and the current epoch and returns true if the current one is better")

	// ErrMissingPath indicates Config.Path is nil.
	ErrMissingPath = ckerr.Misuse("path", "a path function is required; it derives a checkpoint file path from an epoch's metrics")

	// ErrMissingModel indicates Config.Model is nil.
	ErrMissingModel = ckerr.Misuse("model", "a model is required to save checkpoints")

	// ErrMissingRemote indicates Config.Remote is nil.
	ErrMissingRemote = ckerr.Misuse("remote", "a remote is required to upload checkpoints")
)

// ErrRemoteNotFound indicates the previous checkpoint could not be found
// remotely when looking it up by name.
var ErrRemoteNotFound = errors.New("previous checkpoint not found in remote store")
