package home

import "fmt"

// Rooms with switchable lights.
const (
	RoomLivingRoom = "living_room"
	RoomWorkshop   = "workshop"
)

// Music playback states.
const (
	MusicPlaying = "PLAYING"
	MusicPaused  = "PAUSED"
)

// SmartHome is the in-memory state of the smart-home panel.
type SmartHome struct {
	LivingRoomLights bool   `json:"livingRoomLights"`
	WorkshopLights   bool   `json:"workshopLights"`
	ThermostatF      int    `json:"thermostatF"`
	Music            string `json:"music"`
}

// DefaultSmartHome is the state at startup.
func DefaultSmartHome() SmartHome {
	return SmartHome{
		LivingRoomLights: true,
		WorkshopLights:   false,
		ThermostatF:      70,
		Music:            MusicPlaying,
	}
}

// SmartHome returns the current panel state.
func (h *Home) SmartHome() SmartHome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.smart
}

// ToggleLights flips the lights in room and returns the new state.
func (h *Home) ToggleLights(room string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch room {
	case RoomLivingRoom:
		h.smart.LivingRoomLights = !h.smart.LivingRoomLights
		return h.smart.LivingRoomLights, nil
	case RoomWorkshop:
		h.smart.WorkshopLights = !h.smart.WorkshopLights
		return h.smart.WorkshopLights, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownRoom, room)
	}
}

// SetLights switches the lights in room on or off.
func (h *Home) SetLights(room string, on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch room {
	case RoomLivingRoom:
		h.smart.LivingRoomLights = on
	case RoomWorkshop:
		h.smart.WorkshopLights = on
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRoom, room)
	}
	return nil
}

// ToggleMusic switches between playing and paused.
func (h *Home) ToggleMusic() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.smart.Music == MusicPlaying {
		h.smart.Music = MusicPaused
	} else {
		h.smart.Music = MusicPlaying
	}
	return h.smart.Music
}
