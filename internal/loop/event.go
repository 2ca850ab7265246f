// SPDX-License-Identifier: MPL-2.0

package loop

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxEventBytes bounds how much of an event payload is read.
const maxEventBytes = 25 << 20

// ErrNoHeadCommit is returned for push payloads without a head commit,
// such as branch deletions.
var ErrNoHeadCommit = errors.New("push event has no head commit")

type (
	// PushEvent holds the fields of a GitHub push payload the gate reads.
	PushEvent struct {
		Ref        string       `json:"ref"`
		HeadCommit *EventCommit `json:"head_commit"`
	}

	// EventCommit is a commit inside a push payload.
	EventCommit struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
)

// ParsePushEvent decodes a push payload and returns it.
func ParsePushEvent(r io.Reader) (*PushEvent, error) {
	var ev PushEvent
	if err := json.NewDecoder(io.LimitReader(r, maxEventBytes)).Decode(&ev); err != nil {
		return nil, fmt.Errorf("decoding push event: %w", err)
	}
	return &ev, nil
}

// HeadCommitMessage reads the push payload at path and returns the head
// commit message.
func HeadCommitMessage(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening event payload: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only file handle

	ev, err := ParsePushEvent(f)
	if err != nil {
		return "", err
	}
	if ev.HeadCommit == nil {
		return "", ErrNoHeadCommit
	}
	return ev.HeadCommit.Message, nil
}
