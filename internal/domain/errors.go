package domain

import "errors"

var (
	// ErrVersionNotFound is returned when a quiz version id is unknown.
	ErrVersionNotFound = errors.New("quiz version not found")
	// ErrNodeNotFound is returned when a node id is unknown.
	ErrNodeNotFound = errors.New("quiz node not found")
	// ErrEdgeNotFound is returned when an edge id is unknown.
	ErrEdgeNotFound = errors.New("quiz edge not found")
	// ErrRunNotFound is returned when a run id is unknown.
	ErrRunNotFound = errors.New("quiz run not found")
	// ErrNoActiveVersion indicates no published version exists for a quiz name.
	ErrNoActiveVersion = errors.New("no published version for quiz")

	// ErrInvalidVersion indicates a version is missing its name.
	ErrInvalidVersion = errors.New("invalid quiz version")
	// ErrVersionPublished is returned when a published version would be mutated in place.
	ErrVersionPublished = errors.New("quiz version is published; fork it to make changes")
	// ErrVersionNotPublished is returned when runs are started against a draft.
	ErrVersionNotPublished = errors.New("quiz version is not published")
	// ErrValidationFailed indicates the structure validator reported errors.
	ErrValidationFailed = errors.New("quiz graph failed validation")
	// ErrDuplicateNodeKey indicates a node key is already used within the version.
	ErrDuplicateNodeKey = errors.New("node key already used in this version")
	// ErrInvalidNode indicates a node is missing a key or has an unknown type.
	ErrInvalidNode = errors.New("invalid quiz node")
	// ErrUnknownNode indicates an edge endpoint is not a node of the same version.
	ErrUnknownNode = errors.New("edge references a node outside this version")
	// ErrInvalidCondition indicates an edge condition cannot be interpreted.
	ErrInvalidCondition = errors.New("invalid edge condition")
	// ErrEmptyQuiz indicates a version has no nodes to start from.
	ErrEmptyQuiz = errors.New("quiz version has no nodes")

	// ErrRunCompleted is returned when answers arrive after a run reached a result node.
	ErrRunCompleted = errors.New("quiz run already completed")
	// ErrRunDeadEnd is returned when answers arrive for a run with no current node.
	ErrRunDeadEnd = errors.New("quiz run has no current node")
	// ErrInvalidAnswer indicates a submitted value does not fit the current node.
	ErrInvalidAnswer = errors.New("answer not accepted for this node")
)
