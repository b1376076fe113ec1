package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-cbt/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func intPtr(n int) *int { return &n }

func TestStructUsesJSONFieldNames(t *testing.T) {
	fields := Struct(&model.RecordAnswerRequest{ChoiceIndex: intPtr(0)})
	if _, ok := fields["question_id"]; !ok {
		t.Fatalf("expected question_id error, got %v", fields)
	}

	if fields := Struct(&model.RecordAnswerRequest{QuestionID: "q1", ChoiceIndex: intPtr(0)}); fields != nil {
		t.Fatalf("expected valid request, got %v", fields)
	}
}

func TestBindReportsMissingChoice(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"question_id":"q1"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req model.RecordAnswerRequest
	fields := Bind(c, &req)
	if _, ok := fields["choice_index"]; !ok {
		t.Fatalf("expected choice_index error, got %v", fields)
	}
}

func TestBindReportsSyntaxErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req model.RecordAnswerRequest
	if fields := Bind(c, &req); fields["detail"] == "" {
		t.Fatalf("expected detail, got %v", fields)
	}
}
