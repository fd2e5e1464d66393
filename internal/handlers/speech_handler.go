package handlers

import (
	"errors"
	"net/http"

	"github.com/dyslexiaaid/screening-service/internal/speech"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SpeechHandler struct {
	BaseHandler
	recognizer speech.Recognizer
}

func NewSpeechHandler(recognizer speech.Recognizer, logger utils.Logger) *SpeechHandler {
	return &SpeechHandler{
		BaseHandler: NewBaseHandler(logger),
		recognizer:  recognizer,
	}
}

type SpeechResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SpeechToText transcribes the uploaded "audio" file. Failures are reported
// in the body; the status is always 200.
func (h *SpeechHandler) SpeechToText(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusOK, SpeechResponse{Error: "No audio file provided"})
		return
	}

	audio, err := file.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded audio")
		c.JSON(http.StatusOK, SpeechResponse{Error: "Could not read audio file"})
		return
	}
	defer audio.Close()

	text, err := h.recognizer.Recognize(c.Request.Context(), audio)
	if err != nil {
		c.JSON(http.StatusOK, SpeechResponse{Error: h.speechError(c, err)})
		return
	}
	c.JSON(http.StatusOK, SpeechResponse{Success: true, Text: text})
}

func (h *SpeechHandler) speechError(c *gin.Context, err error) string {
	switch {
	case errors.Is(err, speech.ErrNoSpeech):
		return "Could not understand audio"
	case errors.Is(err, speech.ErrEmptyAudio):
		return "Audio file is empty"
	case errors.Is(err, speech.ErrAudioTooLarge):
		return "Audio file is too large"
	case errors.Is(err, speech.ErrNotConfigured):
		return "Speech recognition is unavailable"
	default:
		h.LogError(c, err, "Speech recognition failed")
		return "Speech recognition service error"
	}
}
