package protocol

// DefaultResetFMS, DefaultResetRadio, and DefaultResetRobot implement the
// store-side watchdog-expiry hooks shared by both wire variants (frc2014,
// frc2015): neither variant changes the reset semantics. The hooks only
// update the store; neither they nor the engine rebind an endpoint on
// expiry, so each endpoint keeps the address it was last opened with
// until Configure or SetAddresses runs.
func DefaultResetFMS(ctx *Context) {
	ctx.Config.OnFMSWatchdogExpired()
}

func DefaultResetRadio(ctx *Context) {
	ctx.Config.OnRadioWatchdogExpired()
}

func DefaultResetRobot(ctx *Context) {
	ctx.Config.OnRobotWatchdogExpired()
	ctx.ClearOneShotFlags()
}
