package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/timely-app/timely-backend/services/assistant-service/internal/genai"
	"github.com/timely-app/timely-backend/services/assistant-service/internal/vision"
)

const maxImageBytes = 10 << 20

type OCRHandler struct {
	vision vision.TextExtractor
	gen    genai.Generator
	logger *slog.Logger
	now    func() time.Time
}

func NewOCRHandler(extractor vision.TextExtractor, gen genai.Generator, logger *slog.Logger) *OCRHandler {
	return &OCRHandler{
		vision: extractor,
		gen:    gen,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type extractedEvent struct {
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
}

// Handle turns an uploaded screenshot into candidate calendar events: OCR
// first, then the extraction prompt over the recognized text. The response is
// always a JSON array; an unreadable image or an off-contract model reply
// degrades to [] rather than an error the client would have to special-case.
func (h *OCRHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	image, err := readImage(r)
	if err != nil {
		http.Error(w, "no image file uploaded", http.StatusBadRequest)
		return
	}

	text, err := h.vision.DetectText(r.Context(), image)
	if err != nil {
		h.logger.Error("text detection failed", "err", err)
		http.Error(w, "error processing image", http.StatusInternalServerError)
		return
	}
	if text == "" {
		writeJSON(w, http.StatusOK, []extractedEvent{})
		return
	}

	raw, err := h.gen.GenerateContent(r.Context(), buildExtractionPrompt(h.now(), text))
	if err != nil {
		h.logger.Error("model call failed", "err", err)
		http.Error(w, "error processing image", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, filterEvents(stripFences(raw), h.logger))
}

func readImage(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxImageBytes))
}

// filterEvents parses the model output and keeps only entries carrying the
// three required string fields; anything else, including a whole payload
// that is not an array, collapses to the empty list.
func filterEvents(raw string, logger *slog.Logger) []extractedEvent {
	var entries []map[string]any
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logger.Error("model response was not an event array", "err", err)
		return []extractedEvent{}
	}

	out := make([]extractedEvent, 0, len(entries))
	for _, entry := range entries {
		title, okTitle := entry["title"].(string)
		start, okStart := entry["start"].(string)
		end, okEnd := entry["end"].(string)
		if !okTitle || !okStart || !okEnd {
			continue
		}
		location, _ := entry["location"].(string)
		out = append(out, extractedEvent{Title: title, Start: start, End: end, Location: location})
	}
	return out
}

func buildExtractionPrompt(now time.Time, text string) string {
	return fmt.Sprintf(`You are a highly intelligent and precise data extraction engine. Your sole function is to analyze unstructured text, identify calendar events, and convert them into a structured JSON format.

### Rules & Constraints:
1.  **Output Format:** Your response MUST be a valid JSON array. Do NOT include any explanatory text or markdown.
2.  **Event Schema:** Each object MUST contain: "title" (String), "start" (ISO 8601 String), "end" (ISO 8601 String), "location" (String, or "" if none).
3.  **Date Logic:** Use today's date, %s, as the reference. For days of the week (e.g., "Monday"), calculate the date for the next upcoming instance.
4.  **Time Logic:** Handle 12-hour (AM/PM) and 24-hour formats. Assume a 1-hour duration if no end time is specified.
5.  **Ambiguity:** If a title or start time is missing for an event, do not include it in the output.
6.  **Empty Input:** If no events are found, return an empty array [].

Here is the text for analysis:
---
%s
---`, now.Format("2006-01-02"), text)
}
