package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/metrics"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/models"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/repo"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/session"
)

// TaskHandler serves the task CRUD and stats API. Every operation is scoped
// to the session user placed in the request context by the auth guard.
type TaskHandler struct {
	Repo *repo.TaskRepo
}

//
// ==========================
// List Tasks
// ==========================
//

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())

	tasks, err := h.Repo.ListForUser(r.Context(), user.ID)
	if err != nil {
		slog.Error("list tasks failed", "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

//
// ==========================
// Create Task
// ==========================
//

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())

	var input struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
		Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
		DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	input.Title = strings.TrimSpace(input.Title)

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}

	var dueDate *string
	if input.DueDate != "" {
		dueDate = &input.DueDate
	}

	id, err := h.Repo.Create(r.Context(), user.ID, input.Title, input.Description, input.Priority, dueDate)
	if err != nil {
		slog.Error("create task failed", "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	slog.Info("task created", "task_id", id, "user_id", user.ID)
	metrics.IncTaskOp("created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      id,
		"message": "Task created successfully",
		"title":   input.Title,
	})
}

//
// ==========================
// Update Task (partial)
// ==========================
//

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())

	idStr := chi.URLParam(r, "id")
	taskID, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid task id", http.StatusBadRequest)
		return
	}

	var input map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	patch, fields := buildPatch(input)
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	if err := h.Repo.Update(r.Context(), taskID, user.ID, patch); err != nil {
		if err == repo.ErrTaskNotFound {
			JSONError(w, "task not found", http.StatusNotFound)
			return
		}
		slog.Error("update task failed", "task_id", taskID, "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	slog.Info("task updated", "task_id", taskID, "user_id", user.ID)
	metrics.IncTaskOp("updated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Task updated successfully"})
}

// buildPatch translates the decoded body into a TaskPatch, collecting
// field-level validation errors. Keys outside the allow-list are ignored.
// Only due_date may be explicitly null.
func buildPatch(input map[string]json.RawMessage) (repo.TaskPatch, map[string]string) {
	patch := repo.TaskPatch{}
	fields := map[string]string{}

	str := func(key string, raw json.RawMessage) *string {
		if string(raw) == "null" {
			fields[key] = "must not be null"
			return nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			fields[key] = "must be a string"
			return nil
		}
		return &s
	}

	if raw, ok := input["title"]; ok {
		patch.Title = str("title", raw)
	}
	if raw, ok := input["description"]; ok {
		patch.Description = str("description", raw)
	}
	if raw, ok := input["status"]; ok {
		if s := str("status", raw); s != nil {
			if !models.ValidStatus(*s) {
				fields["status"] = "must be pending, in-progress, or completed"
			} else {
				patch.Status = s
			}
		}
	}
	if raw, ok := input["priority"]; ok {
		if s := str("priority", raw); s != nil {
			if !models.ValidPriority(*s) {
				fields["priority"] = "must be low, medium, or high"
			} else {
				patch.Priority = s
			}
		}
	}
	if raw, ok := input["due_date"]; ok {
		patch.DueDateSet = true
		if string(raw) != "null" {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				fields["due_date"] = "must be a string or null"
			} else if s == "" {
				// Empty string clears the date, matching create semantics.
			} else if _, err := repo.ParseDueDate(s); err != nil {
				fields["due_date"] = "must be YYYY-MM-DD"
			} else {
				patch.DueDate = &s
			}
		}
	}

	return patch, fields
}

//
// ==========================
// Delete Task
// ==========================
//

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())

	idStr := chi.URLParam(r, "id")
	taskID, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid task id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Delete(r.Context(), taskID, user.ID); err != nil {
		if err == repo.ErrTaskNotFound {
			JSONError(w, "task not found", http.StatusNotFound)
			return
		}
		slog.Error("delete task failed", "task_id", taskID, "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	slog.Info("task deleted", "task_id", taskID, "user_id", user.ID)
	metrics.IncTaskOp("deleted")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Task deleted successfully"})
}

//
// ==========================
// Stats
// ==========================
//

func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())

	stats, err := h.Repo.Stats(r.Context(), user.ID)
	if err != nil {
		slog.Error("stats failed", "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// validationFields maps validator errors to a field -> message map for the response body.
func validationFields(err error) map[string]string {
	fields := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fields
	}
	for _, e := range verrs {
		name := jsonFieldName(e.Field())
		switch e.Tag() {
		case "required":
			fields[name] = "required"
		case "oneof":
			fields[name] = "must be one of: " + e.Param()
		case "datetime":
			fields[name] = "must be YYYY-MM-DD"
		default:
			fields[name] = "invalid"
		}
	}
	return fields
}

// jsonFieldName maps a struct field name to its JSON key.
func jsonFieldName(field string) string {
	if field == "DueDate" {
		return "due_date"
	}
	return strings.ToLower(field)
}
