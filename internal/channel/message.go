package channel

import (
	"encoding/json"
	"fmt"
)

type MessageType string

const (
	TypeStartQuiz    MessageType = "start_quiz"
	TypeSubmitAnswer MessageType = "submit_answer"
	TypeGetQuestion  MessageType = "get_question"

	TypeQuizStarted  MessageType = "quiz_started"
	TypeAnswerResult MessageType = "answer_result"
	TypeQuestion     MessageType = "question"
	TypeError        MessageType = "error"
)

// Outbound is a message the client sends. The set is closed: only the types
// in this file implement it.
type Outbound interface {
	Type() MessageType
	outbound()
}

// Inbound is a message the server sends. The set is closed: only the types
// in this file implement it.
type Inbound interface {
	Type() MessageType
	inbound()
}

type StartQuiz struct {
	QuizID int `json:"quiz_id"`
}

type SubmitAnswer struct {
	QuestionID   int  `json:"question_id"`
	AnswerIndex  int  `json:"answer_index"`
	ResponseTime *int `json:"response_time,omitempty"`
}

type GetQuestion struct {
	QuestionID int `json:"question_id"`
}

type QuizStarted struct {
	QuizID  int    `json:"quiz_id"`
	Message string `json:"message,omitempty"`
}

type AnswerResult struct {
	QuestionID    int    `json:"question_id"`
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer int    `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
}

type QuestionMessage struct {
	QuestionID   int      `json:"question_id"`
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
	TimeLimit    int      `json:"time_limit,omitempty"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

func (StartQuiz) Type() MessageType    { return TypeStartQuiz }
func (SubmitAnswer) Type() MessageType { return TypeSubmitAnswer }
func (GetQuestion) Type() MessageType  { return TypeGetQuestion }

func (StartQuiz) outbound()    {}
func (SubmitAnswer) outbound() {}
func (GetQuestion) outbound()  {}

func (QuizStarted) Type() MessageType     { return TypeQuizStarted }
func (AnswerResult) Type() MessageType    { return TypeAnswerResult }
func (QuestionMessage) Type() MessageType { return TypeQuestion }
func (ErrorMessage) Type() MessageType    { return TypeError }

func (QuizStarted) inbound()     {}
func (AnswerResult) inbound()    {}
func (QuestionMessage) inbound() {}
func (ErrorMessage) inbound()    {}

// InboundHandler has one method per inbound kind, so adding a kind breaks
// every handler until it deals with it.
type InboundHandler interface {
	QuizStarted(QuizStarted)
	AnswerResult(AnswerResult)
	Question(QuestionMessage)
	Error(ErrorMessage)
}

// Dispatch calls the handler method matching msg's concrete kind.
func Dispatch(msg Inbound, h InboundHandler) {
	switch m := msg.(type) {
	case QuizStarted:
		h.QuizStarted(m)
	case AnswerResult:
		h.AnswerResult(m)
	case QuestionMessage:
		h.Question(m)
	case ErrorMessage:
		h.Error(m)
	}
}

// MalformedMessageError describes an inbound payload that could not be
// turned into an Inbound message.
type MalformedMessageError struct {
	Payload string
	Reason  string
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message (%s): %.120s", e.Reason, e.Payload)
}

type envelope struct {
	Type MessageType `json:"type"`
}

// Encode serialises an outbound message with its type discriminator.
func Encode(msg Outbound) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Type(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Type(), err)
	}
	typ, _ := json.Marshal(msg.Type())
	fields["type"] = typ

	return json.Marshal(fields)
}

// Decode parses an inbound payload.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &MalformedMessageError{Payload: string(data), Reason: err.Error()}
	}

	var (
		msg Inbound
		err error
	)
	switch env.Type {
	case TypeQuizStarted:
		var m QuizStarted
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeAnswerResult:
		var m AnswerResult
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeQuestion:
		var m QuestionMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeError:
		var m ErrorMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case "":
		return nil, &MalformedMessageError{Payload: string(data), Reason: "missing type"}
	default:
		return nil, &MalformedMessageError{Payload: string(data), Reason: "unknown type " + string(env.Type)}
	}

	if err != nil {
		return nil, &MalformedMessageError{Payload: string(data), Reason: err.Error()}
	}
	return msg, nil
}
