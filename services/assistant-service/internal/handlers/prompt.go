package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/timely-app/timely-backend/services/assistant-service/internal/genai"
)

const apologyReply = "I'm sorry, I had trouble understanding that. Could you please try rephrasing?"

type PromptHandler struct {
	gen    genai.Generator
	logger *slog.Logger
	now    func() time.Time
}

func NewPromptHandler(gen genai.Generator, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{
		gen:    gen,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type promptRequest struct {
	Prompt        string          `json:"prompt"`
	CurrentEvents json.RawMessage `json:"current_events"`
}

type promptResponse struct {
	Reply   string            `json:"reply"`
	Actions []json.RawMessage `json:"actions"`
}

// Handle runs the user's request through the calendar-management prompt and
// enforces the {reply, actions} contract on whatever comes back. A model
// reply that breaks the contract is treated like any other collaborator
// failure: the client gets the canned apology, never raw model output.
func (h *PromptHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, promptResponse{Reply: "No prompt provided.", Actions: []json.RawMessage{}})
		return
	}

	raw, err := h.gen.GenerateContent(r.Context(), buildCalendarPrompt(h.now(), req.Prompt, req.CurrentEvents))
	if err != nil {
		h.logger.Error("model call failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, promptResponse{Reply: apologyReply, Actions: []json.RawMessage{}})
		return
	}

	var parsed promptResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil || parsed.Actions == nil {
		h.logger.Error("model response violated contract", "err", err)
		writeJSON(w, http.StatusInternalServerError, promptResponse{Reply: apologyReply, Actions: []json.RawMessage{}})
		return
	}

	writeJSON(w, http.StatusOK, parsed)
}

// buildCalendarPrompt wraps the user's request with the current date and
// their upcoming schedule so the model can resolve relative dates and vague
// event references to concrete ids.
func buildCalendarPrompt(now time.Time, userPrompt string, currentEvents json.RawMessage) string {
	events := "[]"
	if len(currentEvents) > 0 {
		events = string(currentEvents)
	}
	return fmt.Sprintf(`You are an expert calendar management AI. Your primary function is to interpret a user's request and convert it into a structured list of actions (CREATE, UPDATE, DELETE) or provide a summary of existing events in a JSON format.

**CRITICAL INSTRUCTIONS:**
1.  **Analyze User's Schedule:** You are provided with the user's current list of upcoming events. You MUST use this list to find the correct 'id' for any event the user wants to UPDATE or DELETE.
2.  **Infer from Context:** The user will refer to events vaguely (e.g., "my meeting on Monday"). You must intelligently match this description to the correct event in the provided schedule to get its 'id'.
3.  **Strict JSON Output:** Your entire response MUST be a single, valid JSON object: {"reply": "...", "actions": [...]}. Do not include any text, markdown, or explanations outside this object.
4.  **Handling Listing Requests:** If the user's request is a query to list their schedule (e.g., "what do I have this week?", "list my events", "what's on my calendar?"), your primary goal is to provide a summary in the "reply". In this case, the "actions" array MUST be empty.

**Current Context:**
- The current date is: %s. Use this for all relative date calculations.
- The user's upcoming schedule is provided below for context.
- User's Current Events: %s

**Action Schemas (Your required output format):**
- **CREATE:** For making a new event.
  {
    "action": "CREATE",
    "event": { "title": "...", "location": "...", "start": "YYYY-MM-DDTHH:mm:ss", "end": "YYYY-MM-DDTHH:mm:ss" }
  }
  (Assume a 1-hour duration if not specified.)

- **UPDATE:** For changing an existing event.
  {
    "action": "UPDATE",
    "event_id": "the_id_of_the_event_from_the_provided_schedule",
    "updates": { "title": "(optional)", "location": "(optional)", "start": "(optional)", "end": "(optional)" }
  }
  (Only include the fields in "updates" that the user explicitly asked to change.)

- **DELETE:** For removing an existing event.
  {
    "action": "DELETE",
    "event_id": "the_id_of_the_event_to_delete"
  }

---
**User's Request:**
"%s"

**Your JSON Response:**`, now.Format(time.RFC3339), events, userPrompt)
}

// stripFences removes the markdown code fences models wrap JSON in despite
// instructions not to.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
