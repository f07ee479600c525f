package handlers_test

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/dom/english-proficiency-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitResponse struct {
	Session struct {
		Status        string  `json:"status"`
		CertificateID *string `json:"certificateId"`
		TotalScore    *int    `json:"totalScore"`
	} `json:"session"`
	Scores struct {
		Total     int `json:"total"`
		Reading   int `json:"reading"`
		Listening int `json:"listening"`
		Writing   int `json:"writing"`
		Speaking  int `json:"speaking"`
	} `json:"scores"`
	CertificateID string `json:"certificateId"`
}

// fillSession stores a fixed answer set whose rubric outcome is known:
// reading 1/2 correct bands to 75, listening 1/1 bands to 95, one minimal
// writing task floors at 65, one strong speaking recording caps at 100.
func fillSession(t *testing.T, ts *testutil.TestServer, sessionID uuid.UUID, sessionToken string) {
	t.Helper()

	answers := []map[string]interface{}{
		{"sessionId": sessionID, "section": "reading", "questionId": "reading_1", "answer": "b"},
		{"sessionId": sessionID, "section": "reading", "questionId": "reading_2", "answer": "a"},
		{"sessionId": sessionID, "section": "listening", "questionId": "listening_1", "answer": "b"},
		{"sessionId": sessionID, "section": "writing", "questionId": "writing_1", "answer": "A short report."},
		{"sessionId": sessionID, "section": "speaking", "questionId": "speaking_1", "answer": map[string]interface{}{
			"audioData":  "aGVsbG8gd29ybGQ=",
			"size":       60000,
			"recordedAt": "2026-09-01T10:00:00Z",
		}},
	}

	for _, answer := range answers {
		resp := postAnswer(t, ts, sessionToken, answer)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func submitSession(t *testing.T, ts *testutil.TestServer, sessionID uuid.UUID, sessionToken string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost,
		ts.APIURL("/test-sessions/"+sessionID.String()+"/submit"), nil)
	require.NoError(t, err)
	req.Header.Set("x-session-token", sessionToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestSubmit_ScoresAndFinalizes(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	session := testutil.NewSessionBuilder().Paid().Build(t, ts.DB.DB)
	sessionToken, err := ts.Services.Token.IssueSessionToken(ctx, session.ID)
	require.NoError(t, err)

	fillSession(t, ts, session.ID, sessionToken)

	resp := submitSession(t, ts, session.ID, sessionToken)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result submitResponse
	testutil.AssertJSONResponse(t, resp, &result)

	assert.Equal(t, 75, result.Scores.Reading, "1 of 2 correct bands to 75")
	assert.Equal(t, 95, result.Scores.Listening)
	assert.Equal(t, 65, result.Scores.Writing)
	assert.Equal(t, 100, result.Scores.Speaking)
	assert.Equal(t, 84, result.Scores.Total)

	assert.Equal(t, "completed", result.Session.Status)
	assert.Regexp(t, regexp.MustCompile(`^EP\d{4}-\d{4}$`), result.CertificateID)

	// Objective answers carry their correctness flags after submission.
	var correctCount int64
	ts.DB.DB.Table("test_answers").
		Where("session_id = ? AND is_correct = true", session.ID).
		Count(&correctCount)
	assert.EqualValues(t, 2, correctCount)
}

func TestSubmit_SecondSubmitRejected(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	session := testutil.NewSessionBuilder().Paid().Build(t, ts.DB.DB)
	sessionToken, err := ts.Services.Token.IssueSessionToken(ctx, session.ID)
	require.NoError(t, err)

	fillSession(t, ts, session.ID, sessionToken)

	first := submitSession(t, ts, session.ID, sessionToken)
	defer first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	var firstResult submitResponse
	testutil.AssertJSONResponse(t, first, &firstResult)

	second := submitSession(t, ts, session.ID, sessionToken)
	defer second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)

	// Scores and certificate are untouched by the rejected call.
	var stored struct {
		TotalScore    *int
		CertificateID *string
	}
	err = ts.DB.DB.Table("test_sessions").
		Select("total_score, certificate_id").
		Where("id = ?", session.ID).
		Scan(&stored).Error
	require.NoError(t, err)
	require.NotNil(t, stored.TotalScore)
	require.NotNil(t, stored.CertificateID)
	assert.Equal(t, firstResult.Scores.Total, *stored.TotalScore)
	assert.Equal(t, firstResult.CertificateID, *stored.CertificateID)
}

func TestSubmit_Deterministic(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	scores := make([]submitResponse, 0, 2)
	for i := 0; i < 2; i++ {
		session := testutil.NewSessionBuilder().Paid().Build(t, ts.DB.DB)
		sessionToken, err := ts.Services.Token.IssueSessionToken(ctx, session.ID)
		require.NoError(t, err)

		fillSession(t, ts, session.ID, sessionToken)

		resp := submitSession(t, ts, session.ID, sessionToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result submitResponse
		testutil.AssertJSONResponse(t, resp, &result)
		resp.Body.Close()
		scores = append(scores, result)
	}

	assert.Equal(t, scores[0].Scores, scores[1].Scores,
		"identical answer sets must produce identical scores")
}

func TestSubmit_RequiresPaymentAndToken(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	t.Run("unpaid session", func(t *testing.T) {
		session := testutil.NewSessionBuilder().Build(t, ts.DB.DB)
		sessionToken, err := ts.Services.Token.IssueSessionToken(ctx, session.ID)
		require.NoError(t, err)

		resp := submitSession(t, ts, session.ID, sessionToken)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		session := testutil.NewSessionBuilder().Paid().Build(t, ts.DB.DB)

		resp := submitSession(t, ts, session.ID, "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
