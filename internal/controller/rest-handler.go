package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tandem/server/internal/service/room"
	"github.com/tandem/server/pkg/rest"
)

type createRoomInput struct {
	VideoId      string `json:"video_id" validate:"max=100"`
	VideoURL     string `json:"video_url" validate:"omitempty,url,max=500"`
	Password     string `json:"password" validate:"max=100"`
	HostControl  bool   `json:"host_control"`
	HostUsername string `json:"host_username" validate:"required,max=100"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var input createRoomInput
	if err := rest.ReadJSON(r, &input); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.DebugContext(r.Context(), "failed to validate", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	created, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		VideoId:      input.VideoId,
		VideoURL:     input.VideoURL,
		Password:     input.Password,
		HostControl:  input.HostControl,
		HostUsername: input.HostUsername,
	})
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": created})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	found, err := c.roomService.GetRoom(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeRoomError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": found})
}

func (c controller) getRoomState(w http.ResponseWriter, r *http.Request) {
	state, err := c.roomService.GetRoomState(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeRoomError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": state})
}

func (c controller) writeRoomError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, room.ErrRoomNotFound) {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	c.logger.ErrorContext(r.Context(), "failed to get room", "error", err)
	rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
}
