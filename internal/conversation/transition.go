package conversation

// Transition computes the next conversation state for a command. It is pure:
// all side effects (messages, invoices, ledger writes) happen in the service,
// keyed off the command, never off the state change. That is what keeps back
// navigation free of repeated effects.
func Transition(state State, cmd Command) State {
	switch cmd.Kind {
	case CommandStart, CommandCatalog:
		return State{Phase: PhaseLocationList}
	case CommandLocation:
		return State{Phase: PhaseTariffList, Location: cmd.Location}
	case CommandBuy:
		return State{Phase: PhaseInvoiceCreated, Location: state.Location, TariffID: cmd.TariffID}
	case CommandBack:
		return State{Phase: PhaseLocationList}
	default:
		return state
	}
}
