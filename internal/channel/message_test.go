package channel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_AddsTypeDiscriminator(t *testing.T) {
	data, err := Encode(StartQuiz{QuizID: 12})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"start_quiz","quiz_id":12}`, string(data))

	data, err = Encode(SubmitAnswer{QuestionID: 3, AnswerIndex: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"submit_answer","question_id":3,"answer_index":0}`, string(data))
}

func TestDecode_InboundKinds(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"question","question_id":4,"question_text":"What should you do at a red light?","options":["Go","Stop"],"time_limit":30}`))
	require.NoError(t, err)

	q, ok := msg.(QuestionMessage)
	require.True(t, ok)
	assert.Equal(t, []string{"Go", "Stop"}, q.Options)
	assert.Equal(t, 30, q.TimeLimit)

	msg, err = Decode([]byte(`{"type":"error","message":"Quiz ID required"}`))
	require.NoError(t, err)
	assert.Equal(t, ErrorMessage{Message: "Quiz ID required"}, msg)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `hello`},
		{"missing type", `{"quiz_id":1}`},
		{"unknown type", `{"type":"leaderboard"}`},
		{"outbound type", `{"type":"start_quiz","quiz_id":1}`},
		{"wrong field type", `{"type":"answer_result","is_correct":"yes"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.payload))
			var malformed *MalformedMessageError
			assert.True(t, errors.As(err, &malformed), "expected MalformedMessageError, got %v", err)
		})
	}
}
