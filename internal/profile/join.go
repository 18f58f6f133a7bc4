package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/medexa/medexa-platform/internal/appointments"
)

var (
	ErrNotOwner        = errors.New("profile: appointment belongs to another user")
	ErrNotTelemedicine = errors.New("profile: appointment is not a telemedicine consultation")
	ErrNotJoinable     = errors.New("profile: consultation is outside its join window")
	ErrRoomUnavailable = errors.New("profile: consultation room could not be created")
)

// JoinResult carries either a redirect for a missing session or the room URL.
type JoinResult struct {
	Redirect string `json:"redirect,omitempty"`
	RoomURL  string `json:"room_url,omitempty"`
}

// consultationRoomProperties are sent for every patient join.
func consultationRoomProperties() map[string]any {
	return map[string]any{
		"start_video_off":    false,
		"start_audio_off":    false,
		"enable_chat":        true,
		"enable_screenshare": true,
		"max_participants":   2,
	}
}

// JoinConsultation creates a video room for the user's telemedicine
// appointment and stores its URL. A provider failure stores nothing and can
// be retried.
func (r *Reader) JoinConsultation(ctx context.Context, appointmentID string) (*JoinResult, error) {
	id, err := r.auth.CurrentUser(ctx)
	if err != nil || id == nil {
		return &JoinResult{Redirect: LoginPath}, nil
	}

	appt, err := r.appts.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if appt.UserID != id.ID {
		return nil, ErrNotOwner
	}
	if appt.Kind != appointments.KindTelemedicine {
		return nil, ErrNotTelemedicine
	}
	if !Joinable(appt, r.now(), r.loc) {
		return nil, ErrNotJoinable
	}
	if r.rooms == nil {
		return nil, ErrRoomUnavailable
	}

	room, err := r.rooms.CreateRoom(ctx, appt.ID, consultationRoomProperties())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoomUnavailable, err)
	}
	if err := r.appts.SetRoomURL(ctx, appt.ID, room.URL); err != nil {
		r.logger.Error("failed to store room url", "error", err, "appointment_id", appt.ID)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	r.logger.Info("consultation joined", "appointment_id", appt.ID, "room", room.Name)
	return &JoinResult{RoomURL: room.URL}, nil
}
