package debugserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fieldstation/dsengine/internal/facade"
)

// statusSnapshot is the flattened view /status serves: everything a
// dashboard needs to render without touching the facade directly.
type statusSnapshot struct {
	Team             uint16  `json:"team"`
	ControlMode      string  `json:"control_mode"`
	Station          string  `json:"station"`
	Enabled          bool    `json:"enabled"`
	CanBeEnabled     bool    `json:"can_be_enabled"`
	EmergencyStopped bool    `json:"emergency_stopped"`
	CodeLoaded       bool    `json:"code_loaded"`
	FMSComms         bool    `json:"fms_comms"`
	RadioComms       bool    `json:"radio_comms"`
	RobotComms       bool    `json:"robot_comms"`
	Voltage          float64 `json:"voltage"`
	CPU              float64 `json:"cpu"`
	RAM              float64 `json:"ram"`
	Disk             float64 `json:"disk"`
	CAN              float64 `json:"can"`
	GameData         string  `json:"game_data"`
	StatusString     string  `json:"status_string"`
	JoystickCount    int     `json:"joystick_count"`
	Clients          int     `json:"dashboard_clients"`
}

func snapshotFrom(c *facade.Client, clients int) statusSnapshot {
	st := c.Station()
	return statusSnapshot{
		Team:             c.Team(),
		ControlMode:      string(c.ControlMode()),
		Station:          fmt.Sprintf("%s-%d", st.Alliance, st.Position),
		Enabled:          c.Enabled(),
		CanBeEnabled:     c.CanBeEnabled(),
		EmergencyStopped: c.EmergencyStopped(),
		CodeLoaded:       c.CodeLoaded(),
		FMSComms:         c.FMSComms(),
		RadioComms:       c.RadioComms(),
		RobotComms:       c.RobotComms(),
		Voltage:          c.Voltage(),
		CPU:              c.CPU(),
		RAM:              c.RAM(),
		Disk:             c.Disk(),
		CAN:              c.CAN(),
		GameData:         c.GameData(),
		StatusString:     c.StatusString(),
		JoystickCount:    c.JoystickCount(),
		Clients:          clients,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFrom(s.client, s.hub.clientCount())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !s.client.Initialized() {
		http.Error(w, "not initialized", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
