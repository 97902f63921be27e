package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/model"
	"quickscreen/internal/infra/logging"
	"quickscreen/internal/infra/metrics"
	"quickscreen/internal/usecase"
)

// maxUploadBytes caps one multipart submit request. Clips are short
// screening answers, not full interviews.
const maxUploadBytes = 64 << 20

type submissionResponse struct {
	ID             string `json:"id"`
	JobID          string `json:"job_id"`
	CandidateID    string `json:"candidate_id"`
	QuestionIndex  int    `json:"question_index"`
	AnswerURL      string `json:"answer_url"`
	Status         string `json:"status"`
	SubmittedAt    string `json:"submitted_at"`
	CandidateName  string `json:"candidate_name,omitempty"`
	CandidateEmail string `json:"candidate_email,omitempty"`
	New            bool   `json:"new,omitempty"`
}

func toSubmissionResponse(s *model.Submission) submissionResponse {
	return submissionResponse{
		ID:            s.ID,
		JobID:         s.JobID,
		CandidateID:   s.CandidateID,
		QuestionIndex: s.QuestionIndex,
		AnswerURL:     s.AnswerURL,
		Status:        string(s.Status),
		SubmittedAt:   s.SubmittedAt.Format(time.RFC3339Nano),
	}
}

// handleSubmit accepts one answer clip as multipart/form-data: fields
// job_id, question_index, optional overwrite, and the clip under "answer".
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	jobID := r.FormValue("job_id")
	questionIndex, err := strconv.Atoi(r.FormValue("question_index"))
	if jobID == "" || err != nil || questionIndex < 0 {
		http.Error(w, "job_id and question_index are required", http.StatusBadRequest)
		return
	}
	overwrite := r.FormValue("overwrite") == "true"

	payload, err := readFormFile(r, "answer")
	if err != nil {
		http.Error(w, "answer clip is required", http.StatusBadRequest)
		return
	}

	ctx := logging.WithJobID(r.Context(), jobID)
	start := time.Now()
	res, err := s.uploader.Submit(ctx, identity.Ref, jobID, questionIndex, payload, usecase.SubmitOptions{Overwrite: overwrite})
	if err != nil {
		s.writeSubmitError(w, ctx, err)
		return
	}
	metrics.IncSubmissionCreated()
	metrics.ObserveUploadDuration(time.Since(start))

	writeJSON(w, http.StatusCreated, struct {
		SubmissionID string `json:"submission_id"`
		AnswerURL    string `json:"answer_url"`
	}{
		SubmissionID: res.SubmissionID,
		AnswerURL:    res.MediaRef,
	})
}

// handleSubmitBatch accepts a whole application: field job_id, optional
// overwrite, and one clip per question under "answer-<index>".
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	jobID := r.FormValue("job_id")
	if jobID == "" {
		http.Error(w, "job_id is required", http.StatusBadRequest)
		return
	}
	overwrite := r.FormValue("overwrite") == "true"

	var answers []usecase.Answer
	for field := range r.MultipartForm.File {
		idxStr, ok := strings.CutPrefix(field, "answer-")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 0 {
			http.Error(w, fmt.Sprintf("invalid answer field %q", field), http.StatusBadRequest)
			return
		}
		payload, err := readFormFile(r, field)
		if err != nil {
			http.Error(w, fmt.Sprintf("unreadable clip in %q", field), http.StatusBadRequest)
			return
		}
		answers = append(answers, usecase.Answer{QuestionIndex: idx, Payload: payload})
	}

	ctx := logging.WithJobID(r.Context(), jobID)
	results, err := s.uploader.SubmitBatch(ctx, identity.Ref, jobID, answers, usecase.SubmitOptions{Overwrite: overwrite})
	if err != nil {
		var incomplete *domain.IncompleteAnswerError
		var batchErr *usecase.BatchError
		switch {
		case errors.As(err, &incomplete):
			writeJSON(w, http.StatusUnprocessableEntity, struct {
				Error   string `json:"error"`
				Missing []int  `json:"missing_questions"`
			}{
				Error:   "application incomplete",
				Missing: incomplete.Missing,
			})
		case errors.As(err, &batchErr):
			// Succeeded questions stay persisted; the caller retries the
			// failed indices only.
			failed := make(map[int]string, len(batchErr.Failed))
			for idx, ferr := range batchErr.Failed {
				failed[idx] = ferr.Error()
				metrics.IncSubmissionFailed(failPhase(ferr))
			}
			logging.With(ctx, s.log).Error().Err(err).Msg("batch submit partially failed")
			writeJSON(w, http.StatusInternalServerError, struct {
				Error     string                    `json:"error"`
				Succeeded map[int]submitBatchResult `json:"succeeded"`
				Failed    map[int]string            `json:"failed"`
			}{
				Error:     "some answers failed",
				Succeeded: batchResults(results),
				Failed:    failed,
			})
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Answer does not match a job question", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Job not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to submit application", http.StatusInternalServerError)
		}
		return
	}
	for range results {
		metrics.IncSubmissionCreated()
	}

	writeJSON(w, http.StatusCreated, struct {
		Submissions map[int]submitBatchResult `json:"submissions"`
	}{
		Submissions: batchResults(results),
	})
}

type submitBatchResult struct {
	SubmissionID string `json:"submission_id"`
	AnswerURL    string `json:"answer_url"`
}

func batchResults(results map[int]*usecase.SubmitResult) map[int]submitBatchResult {
	out := make(map[int]submitBatchResult, len(results))
	for idx, res := range results {
		out[idx] = submitBatchResult{SubmissionID: res.SubmissionID, AnswerURL: res.MediaRef}
	}
	return out
}

func (s *Server) handleCandidateHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	subs, err := s.review.CandidateHistory(r.Context(), identity.Ref)
	if err != nil {
		http.Error(w, "Failed to list submissions", http.StatusInternalServerError)
		return
	}
	data := make([]submissionResponse, 0, len(subs))
	for _, sub := range subs {
		data = append(data, toSubmissionResponse(sub))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []submissionResponse `json:"data"`
	}{Data: data})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := s.jobs.FindByID(r.Context(), nil, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to get job", http.StatusInternalServerError)
		return
	}

	type questionResponse struct {
		Index    int    `json:"index"`
		Prompt   string `json:"prompt"`
		MediaURL string `json:"media_url,omitempty"`
	}
	questions := make([]questionResponse, 0, len(job.Questions))
	for _, q := range job.Questions {
		questions = append(questions, questionResponse{Index: q.Index, Prompt: q.Prompt, MediaURL: q.MediaURL})
	}
	writeJSON(w, http.StatusOK, struct {
		ID          string             `json:"id"`
		Title       string             `json:"title"`
		Description string             `json:"description"`
		Questions   []questionResponse `json:"questions"`
	}{
		ID:          job.ID,
		Title:       job.Title,
		Description: job.Description,
		Questions:   questions,
	})
}

// handleReviewQueue lists the recruiter's submissions, newest first. The
// optional since parameter (RFC3339) marks entries submitted after the
// recruiter's last visit.
func (s *Server) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	jobFilter := r.URL.Query().Get("job_id")
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "since must be RFC3339", http.StatusBadRequest)
			return
		}
		since = t
	}

	view, err := s.review.ListForRecruiter(r.Context(), identity.Ref, jobFilter, since)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load review queue", http.StatusInternalServerError)
		return
	}

	newSet := make(map[string]struct{})
	for _, sub := range usecase.ComputeNewSince(view.Submissions, since) {
		newSet[sub.ID] = struct{}{}
	}

	// Display attributes are best effort: an unresolved profile never
	// hides a submission.
	profileCache := make(map[string]*model.Profile)
	data := make([]submissionResponse, 0, len(view.Submissions))
	for _, sub := range view.Submissions {
		item := toSubmissionResponse(sub)
		_, item.New = newSet[sub.ID]
		profile, ok := profileCache[sub.CandidateID]
		if !ok {
			profile, _ = s.profiles.FindByIdentityRef(r.Context(), nil, sub.CandidateID)
			profileCache[sub.CandidateID] = profile
		}
		if profile != nil {
			item.CandidateName = profile.Name
			item.CandidateEmail = profile.Email
		}
		data = append(data, item)
	}

	writeJSON(w, http.StatusOK, struct {
		Data     []submissionResponse `json:"data"`
		Total    int                  `json:"total"`
		NewCount int                  `json:"new_count"`
	}{
		Data:     data,
		Total:    len(data),
		NewCount: len(newSet),
	})
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	submissionID := chi.URLParam(r, "submissionID")

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	status := model.SubmissionStatus(req.Status)
	if !model.ValidStatus(status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	// Recruiters may only touch submissions on jobs they own.
	if err := s.authorizeSubmission(r, identity.Ref, submissionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to update status", http.StatusInternalServerError)
		return
	}

	if err := s.review.SetStatus(r.Context(), nil, submissionID, status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to update status", http.StatusInternalServerError)
		return
	}
	metrics.IncStatusTransition(string(status))

	writeJSON(w, http.StatusOK, struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}{ID: submissionID, Status: string(status)})
}

func (s *Server) authorizeSubmission(r *http.Request, recruiterRef, submissionID string) error {
	view, err := s.review.ListForRecruiter(r.Context(), recruiterRef, "", time.Time{})
	if err != nil {
		return err
	}
	for _, sub := range view.Submissions {
		if sub.ID == submissionID {
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Server) writeSubmitError(w http.ResponseWriter, ctx context.Context, err error) {
	log := logging.With(ctx, s.log)
	switch {
	case errors.Is(err, domain.ErrDuplicateSubmission):
		metrics.IncSubmissionDuplicate()
		http.Error(w, "Slot already holds a submission", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Invalid submission", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrUpload):
		metrics.IncSubmissionFailed("upload")
		log.Error().Err(err).Msg("object store write failed")
		http.Error(w, "Failed to store answer clip", http.StatusInternalServerError)
	case errors.Is(err, domain.ErrPersist):
		metrics.IncSubmissionFailed("persist")
		log.Error().Err(err).Msg("metadata write failed")
		http.Error(w, "Failed to record submission", http.StatusInternalServerError)
	default:
		log.Error().Err(err).Msg("submit failed")
		http.Error(w, "Failed to submit", http.StatusInternalServerError)
	}
}

func failPhase(err error) string {
	switch {
	case errors.Is(err, domain.ErrUpload):
		return "upload"
	case errors.Is(err, domain.ErrPersist):
		return "persist"
	default:
		return "other"
	}
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)
	return io.ReadAll(file)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
