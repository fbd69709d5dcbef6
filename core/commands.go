package core

import (
	"sync/atomic"

	"cyclotron/protocol"
)

// FirmwareState holds the global firmware state
type FirmwareState struct {
	configCRC  uint32 // atomic
	isShutdown uint32 // atomic bool
}

var globalState = &FirmwareState{}

// InitCoreCommands registers the protocol-level commands. The identify
// pair must be first: hosts bootstrap with identify_response = 0 and
// identify = 1 before they have a dictionary.
func InitCoreCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("get_uptime", "", handleGetUptime)
	RegisterCommand("get_clock", "", handleGetClock)
	RegisterCommand("get_config", "", handleGetConfig)
	RegisterCommand("config_reset", "", handleConfigReset)
	RegisterCommand("finalize_config", "crc=%u", handleFinalizeConfig)
	RegisterCommand("allocate_oids", "count=%c", handleAllocateOids)
	RegisterCommand("emergency_stop", "", handleEmergencyStop)
	RegisterCommand("reset", "", handleReset)
	RegisterCommand("debug_events", "", handleDebugEvents)

	// Responses (MCU → Host)
	RegisterResponse("clock", "clock=%u")
	RegisterResponse("uptime", "high=%u clock=%u")
	RegisterResponse("config", "is_config=%c crc=%u is_shutdown=%c rings=%c segments=%c")
	RegisterResponse("debug_event", "type=%c oid=%c clock=%u v1=%u v2=%u")
	RegisterResponse("command_error", "cmd=%hu code=%c")

	RegisterConstant("CLOCK_FREQ", uint32(TimerFreq))
	RegisterConstant("FRAME_MAX", uint32(protocol.FrameMax))
}

// handleIdentify returns chunks of the data dictionary
func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := GetGlobalDictionary().GetChunk(offset, uint8(count))
	SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

func handleGetUptime(data *[]byte) error {
	uptime := GetUptime()
	SendResponse("uptime", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(uptime>>32))
		protocol.EncodeVLQUint(output, uint32(uptime))
	})
	return nil
}

func handleGetClock(data *[]byte) error {
	clock := GetTime()
	SendResponse("clock", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, clock)
	})
	return nil
}

// handleGetConfig reports the configuration state and how many animators
// are configured.
func handleGetConfig(data *[]byte) error {
	crc := atomic.LoadUint32(&globalState.configCRC)
	var rings, segments uint32
	if dispatcher != nil {
		rings, segments = uint32(len(dispatcher.rings)), uint32(len(dispatcher.segments))
	}

	SendResponse("config", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, boolToUint(crc != 0))
		protocol.EncodeVLQUint(output, crc)
		protocol.EncodeVLQUint(output, boolToUint(IsShutdown()))
		protocol.EncodeVLQUint(output, rings)
		protocol.EncodeVLQUint(output, segments)
	})
	return nil
}

// handleConfigReset forgets every animator and scheduled command and
// leaves shutdown, so the host can configure from scratch.
func handleConfigReset(data *[]byte) error {
	resetTimers()
	clear(speedTimers)
	var err error
	if dispatcher != nil {
		err = dispatcher.Reset()
	}
	ResetFirmwareState()
	return err
}

// handleFinalizeConfig finalizes the configuration with a CRC
func handleFinalizeConfig(data *[]byte) error {
	crc, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	atomic.StoreUint32(&globalState.configCRC, crc)
	return nil
}

// handleAllocateOids accepts the host's object count. Rings and segments
// are allocated from fixed pools, so there is nothing to reserve.
func handleAllocateOids(data *[]byte) error {
	_, err := protocol.DecodeVLQUint(data)
	return err
}

func handleEmergencyStop(data *[]byte) error {
	TryShutdown("emergency stop")
	return nil
}

// TryShutdown stops every animation, blanks the LEDs and refuses animation
// commands until config_reset.
func TryShutdown(reason string) {
	atomic.StoreUint32(&globalState.isShutdown, 1)
	resetTimers()
	if dispatcher != nil {
		dispatcher.StopAll()
		if err := dispatcher.Flush(); err != nil {
			RecordEvent(EvtFlushError, 0, 0, 0)
		}
	}
	DebugPrintln("[shutdown] " + reason)
}

// IsShutdown returns true if the firmware is in shutdown state
func IsShutdown() bool {
	return atomic.LoadUint32(&globalState.isShutdown) != 0
}

// ResetFirmwareState resets the firmware state for reconnection
func ResetFirmwareState() {
	atomic.StoreUint32(&globalState.configCRC, 0)
	atomic.StoreUint32(&globalState.isShutdown, 0)
}

// handleDebugEvents streams the event ring, oldest first.
func handleDebugEvents(data *[]byte) error {
	for _, evt := range Events() {
		SendResponse("debug_event", func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, uint32(evt.Type))
			protocol.EncodeVLQUint(output, uint32(evt.OID))
			protocol.EncodeVLQUint(output, evt.Clock)
			protocol.EncodeVLQUint(output, evt.Value1)
			protocol.EncodeVLQUint(output, evt.Value2)
		})
	}
	return nil
}

// HandleCommand is the transport's command handler. A failing command is
// answered with command_error before the error is returned.
func HandleCommand(cmdID uint16, data *[]byte) error {
	err := DispatchCommand(cmdID, data)
	if err != nil {
		code := errorCode(err)
		SendResponse("command_error", func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, uint32(cmdID))
			protocol.EncodeVLQUint(output, code)
		})
	}
	return err
}

// SendResponse sends a response message using the global transport
func SendResponse(responseName string, args func(output protocol.OutputBuffer)) {
	if globalTransport == nil {
		return
	}
	cmd, ok := globalRegistry.GetCommandByName(responseName)
	if !ok {
		// all responses are registered at init
		panic("response not registered: " + responseName)
	}
	globalTransport.SendCommand(cmd.ID, args)
}

// Global transport for sending responses (set by main)
var globalTransport *protocol.Transport

// SetGlobalTransport sets the global transport for sending responses
func SetGlobalTransport(transport *protocol.Transport) {
	globalTransport = transport
}

// Global reset handler (set by target-specific code)
var globalResetHandler func()

// resetPending is set when a reset command is received. The reset itself
// happens in the main loop after the ACK is sent.
var resetPending uint32 // atomic bool

// SetResetHandler sets the platform-specific reset handler
func SetResetHandler(handler func()) {
	globalResetHandler = handler
}

func handleReset(_ *[]byte) error {
	atomic.StoreUint32(&resetPending, 1)
	return nil
}

// CheckPendingReset runs the reset handler if a reset was requested. Call
// it from the main loop after pending output has been sent.
func CheckPendingReset() {
	if atomic.CompareAndSwapUint32(&resetPending, 1, 0) && globalResetHandler != nil {
		globalResetHandler()
	}
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
