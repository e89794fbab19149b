package models

import (
	"fmt"
	"strconv"
)

// StartSessionRequest opens a quiz session for one quiz of a content item
type StartSessionRequest struct {
	QuizID          string `json:"quiz_id" validate:"required,quiz_ref"`
	ContentID       string `json:"content_id" validate:"required,quiz_ref"`
	TeacherTestMode bool   `json:"teacher_test_mode"`
}

type EditOp string

const (
	OpSetText    EditOp = "set_text"
	OpSetMapping EditOp = "set_mapping"
	OpMoveItem   EditOp = "move_item"
	OpSetBlank   EditOp = "set_blank"
)

// EditAnswerRequest is the wire form of one answer edit
type EditAnswerRequest struct {
	Op    EditOp `json:"op" validate:"required,oneof=set_text set_mapping move_item set_blank"`
	Key   string `json:"key"`
	Value string `json:"value"`
	Index int    `json:"index" validate:"min=0"`
	From  int    `json:"from" validate:"min=0"`
	To    int    `json:"to" validate:"min=0"`
}

func (r EditAnswerRequest) ToEdit() (Edit, error) {
	switch r.Op {
	case OpSetText:
		return SetText{Value: r.Value}, nil
	case OpSetMapping:
		return SetMapping{Key: r.Key, Value: r.Value}, nil
	case OpMoveItem:
		return MoveItem{From: r.From, To: r.To}, nil
	case OpSetBlank:
		return SetBlank{Index: r.Index, Value: r.Value}, nil
	}
	return nil, fmt.Errorf("unknown edit op %q", r.Op)
}

// PublishQuizRequest is the teacher authoring payload forwarded to the backend
type PublishQuizRequest struct {
	ContentID string         `json:"content_id" validate:"required,quiz_ref"`
	Quiz      QuizInfo       `json:"quiz"`
	Questions []QuizQuestion `json:"questions" validate:"required,min=1,dive"`
}

type QuizInfo struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

// ScoreSubmission is the body of a progress submission
type ScoreSubmission struct {
	ContentID string `json:"content_id" validate:"required,quiz_ref"`
	QuizID    string `json:"quiz_id" validate:"required,quiz_ref"`
	Score     int    `json:"score" validate:"min=0"`
}

type ExportRequest struct {
	Format string `form:"format" json:"format" validate:"omitempty,oneof=xlsx csv"`
	QuizID string `form:"quiz_id" json:"quiz_id"`
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
