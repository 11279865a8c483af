package platform

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spigell/peanuts-cli/internal/apperr"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

func newTestClient(t *testing.T, token string, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(nil, staticToken(token))
	c.APIURL = srv.URL + "/"
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestBearerTokenAndHeaders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("unexpected user agent %q", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 3, "email": "jan@email.nl", "full_name": "Jan", "role": "candidate"})
	})

	user, err := newTestClient(t, " abc ", mux).Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.ID != 3 || user.Email != "jan@email.nl" || user.Role != "candidate" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAnonymousRequestHasNoAuthorization(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /vacancies", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected no authorization header")
		}
		if r.URL.Query().Get("search") != "developer" || r.URL.Query().Get("location") != "Utrecht" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"id": 1, "title": "Developer", "location": "Utrecht", "hours_per_week": "32-40", "intake_questions": nil},
			{"id": 2, "title": "Tester", "intake_questions": []map[string]any{{"id": 9, "question": "Rijbewijs?", "qtype": "yes_no"}}},
		})
	})

	vacancies, err := newTestClient(t, "", mux).ListVacancies(context.Background(), " developer ", "Utrecht")
	if err != nil {
		t.Fatalf("list vacancies: %v", err)
	}
	if vacancies.Len() != 2 {
		t.Fatalf("expected 2 vacancies, got %d", vacancies.Len())
	}
	if vacancies.FindByID(1).HasIntake() || vacancies.FindByID(1).HoursPerWeek != "32-40" {
		t.Fatalf("unexpected first vacancy: %+v", vacancies.FindByID(1))
	}
	second := vacancies.FindByID(2)
	if !second.HasIntake() || !second.IntakeQuestions[0].IsYesNo() {
		t.Fatalf("expected yes/no intake question, got %+v", second.IntakeQuestions)
	}
	if vacancies.FindByID(5) != nil {
		t.Fatalf("expected unknown id to be absent")
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    apperr.Kind
		message string
	}{
		{name: "detail string", status: http.StatusBadRequest, body: `{"detail":"E-mailadres is al in gebruik"}`, kind: apperr.KindTransport, message: "E-mailadres is al in gebruik"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"detail":"Could not validate credentials"}`, kind: apperr.KindAuthorization, message: "Could not validate credentials"},
		{name: "forbidden without body", status: http.StatusForbidden, body: ``, kind: apperr.KindAuthorization, message: "Forbidden"},
		{name: "detail list", status: http.StatusUnprocessableEntity, body: `{"detail":[{"msg":"field required"}]}`, kind: apperr.KindTransport, message: `[{"msg":"field required"}]`},
		{name: "plain text", status: http.StatusBadGateway, body: `upstream down`, kind: apperr.KindTransport, message: "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /ats/jobs", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := newTestClient(t, "tok", mux).ListJobs(context.Background())
			if apperr.KindOf(err) != tt.kind {
				t.Fatalf("expected kind %s, got %v", tt.kind, err)
			}
			if apperr.UserMessage(err) != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, apperr.UserMessage(err))
			}
		})
	}
}

func TestGzipResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ats/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != "gzip" {
			t.Errorf("expected gzip to be accepted")
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_, _ = io.WriteString(gz, `[{"id":4,"title":"Kok","company_id":8,"description":"Keuken"},{"id":5,"title":"Barista","company_name":"Koffiehuis"}]`)
	})

	jobs, err := newTestClient(t, "tok", mux).ListJobs(context.Background())
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != 4 || jobs[0].Description != "Keuken" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if jobs[0].CompanyName() != "Bedrijf #8" || jobs[1].CompanyName() != "Koffiehuis" {
		t.Fatalf("unexpected company names: %q, %q", jobs[0].CompanyName(), jobs[1].CompanyName())
	}
}

func TestApplyMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /vacancies/{id}/apply", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			t.Errorf("unexpected vacancy id %q", r.PathValue("id"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("full_name") != "Jan de Vries" || r.FormValue("email") != "jan@email.nl" || r.FormValue("password") != "geheim123" {
			t.Errorf("unexpected fields: %v", r.MultipartForm.Value)
		}
		if got := r.FormValue("intake_answers_json"); got != `[{"question_id":1,"answer":"Ja"}]` {
			t.Errorf("unexpected answers %q", got)
		}
		file, header, err := r.FormFile("cv_file")
		if err != nil {
			t.Errorf("cv file: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			if header.Filename != "cv.pdf" || string(data) != "%PDF-1.4" {
				t.Errorf("unexpected file %q with %q", header.Filename, data)
			}
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"application_id": 31, "match_score": 104.2, "explanation": "Sterke match", "access_token": "new-token", "token_type": "bearer",
		})
	})

	result, err := newTestClient(t, "", mux).Apply(context.Background(), 7, &ApplicationForm{
		FullName:   "Jan de Vries",
		Email:      "jan@email.nl",
		Password:   "geheim123",
		CVFileName: "cv.pdf",
		CVData:     []byte("%PDF-1.4"),
		Answers:    []Answer{{QuestionID: 1, AnswerText: "Ja"}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.ApplicationID != 31 || result.MatchScore != 100 || result.AuthToken != "new-token" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestApplyWithoutAnswersSendsEmptyList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /vacancies/{id}/apply", func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("intake_answers_json"); got != `[]` {
			t.Errorf("unexpected answers %q", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"application_id": 1})
	})

	if _, err := newTestClient(t, "", mux).Apply(context.Background(), 2, &ApplicationForm{CVFileName: "cv.txt"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestScoreResponseShapes(t *testing.T) {
	tests := []struct {
		name        string
		body        map[string]any
		score       int
		explanation string
		wantErr     bool
	}{
		{name: "match score", body: map[string]any{"match_score": 72, "explanation": "Goed"}, score: 72, explanation: "Goed"},
		{name: "score and summary", body: map[string]any{"score": 41.6, "summary": "Redelijk"}, score: 42, explanation: "Redelijk"},
		{name: "negative clamps", body: map[string]any{"match_score": -3}, score: 0},
		{name: "missing score", body: map[string]any{"explanation": "?"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /ai/match-job", func(w http.ResponseWriter, r *http.Request) {
				var req matchRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if req.CandidateProfileText != "cv tekst" || req.JobDescription != "functie" {
					t.Errorf("unexpected request: %+v", req)
				}
				writeJSON(t, w, http.StatusOK, tt.body)
			})

			assessment, err := newTestClient(t, "tok", mux).Score(context.Background(), "cv tekst", "functie")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("score: %v", err)
			}
			if assessment.Score != tt.score || assessment.Explanation != tt.explanation {
				t.Fatalf("unexpected assessment: %+v", assessment)
			}
		})
	}
}

func TestRecruiterEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ai/recruiter/{id}/start", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 1, "role": "recruiter", "content": "Welkom", "created_at": "2025-03-01T10:00:00"})
	})
	mux.HandleFunc("GET /ai/recruiter/{id}/messages", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"id": 1, "role": "recruiter", "content": "Welkom", "created_at": "2025-03-01T10:00:00"},
			{"id": 2, "role": "candidate", "content": "Hoi", "created_at": "2025-03-01T10:01:00.123456"},
		})
	})
	mux.HandleFunc("POST /ai/recruiter/{id}/message", func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if r.PathValue("id") != "12" || req.Content != "Hoi" {
			t.Errorf("unexpected request %q %+v", r.PathValue("id"), req)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 3, "role": "recruiter", "content": "Vertel meer", "created_at": "2025-03-01T10:01:05Z"})
	})

	c := newTestClient(t, "tok", mux)
	ctx := context.Background()

	opener, err := c.StartConversation(ctx, 12)
	if err != nil || opener.ID != "1" || opener.Role != RoleRecruiter {
		t.Fatalf("unexpected opener %+v, err %v", opener, err)
	}

	msgs, err := c.Messages(ctx, 12)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("unexpected messages %+v, err %v", msgs, err)
	}
	ts, err := msgs[1].Time()
	if err != nil || !ts.Equal(time.Date(2025, 3, 1, 10, 1, 0, 123456000, time.UTC)) {
		t.Fatalf("unexpected timestamp %v, err %v", ts, err)
	}

	reply, err := c.SendMessage(ctx, 12, "Hoi")
	if err != nil || reply.Content != "Vertel meer" {
		t.Fatalf("unexpected reply %+v, err %v", reply, err)
	}
}

func TestLoginRequiresToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password == "fout" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]any{"detail": "Onjuiste inloggegevens"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "jwt", "token_type": "bearer"})
	})
	c := newTestClient(t, "", mux)

	token, err := c.Login(context.Background(), "jan@email.nl", "geheim123")
	if err != nil || token.AccessToken != "jwt" {
		t.Fatalf("unexpected token %+v, err %v", token, err)
	}

	if _, err := c.Login(context.Background(), "jan@email.nl", "fout"); !apperr.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		want    time.Time
		wantErr bool
	}{
		{value: "2025-03-01T10:00:00", want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{value: "2025-03-01 10:00:00.5", want: time.Date(2025, 3, 1, 10, 0, 0, 500000000, time.UTC)},
		{value: "2025-03-01T12:00:00+02:00", want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{value: "2024-05-01 10:20:30.123456+00:00", want: time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.UTC)},
		{value: "2024-05-01 12:20:30+02:00", want: time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)},
		{value: "2024-05-01T10:20:30.5+00:00", want: time.Date(2024, 5, 1, 10, 20, 30, 500000000, time.UTC)},
		{value: "", wantErr: true},
		{value: "gisteren", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTimestamp(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.value)
				}
				return
			}
			if err != nil || !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v (err %v)", tt.want, got, err)
			}
		})
	}
}
