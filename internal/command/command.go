// Package command implements the serial text protocol interpreter.
//
// The grammar is one command per newline-terminated line: a single verb
// character ('r' to read a count, 'c' to clear one) followed by the pin
// number in decimal. 'r' answers with one decimal count line; 'c' answers
// with nothing, and the host treats the absence of a reply as success.
// Malformed input is dropped silently on the wire — it never halts the
// device and never produces an error line.
package command

import (
	"strconv"
	"strings"

	"github.com/sweeney/flow-counter/internal/counter"
)

// Protocol verbs.
const (
	VerbRead  = 'r'
	VerbClear = 'c'
)

// Reason classifies why a line was ignored. The host never sees these;
// they exist so the daemon can log drops and tests can assert on them.
type Reason string

const (
	ReasonEmptyLine     Reason = "empty_line"
	ReasonBadVerb       Reason = "bad_verb"
	ReasonBadPin        Reason = "bad_pin"
	ReasonPinOutOfRange Reason = "pin_out_of_range"
)

// Status is the disposition of one input line.
type Status int

const (
	// StatusHandledReply: command executed, Reply must be written to the host.
	StatusHandledReply Status = iota
	// StatusHandled: command executed, no reply (clear).
	StatusHandled
	// StatusIgnored: line dropped, state unchanged, nothing written.
	StatusIgnored
)

// Outcome is the typed result of handling one line. A silent drop is an
// explicit Ignored outcome rather than an implicit no-op, so it is
// distinguishable from a handled-without-reply clear.
type Outcome struct {
	Status Status
	Reply  string // newline-terminated, set only for StatusHandledReply
	Reason Reason // set only for StatusIgnored
}

// Command is one parsed request.
type Command struct {
	Verb byte
	Pin  counter.Pin
}

// Parse parses one input line into a Command. The trailing newline (and an
// optional carriage return from hosts in text mode) is tolerated. The pin
// number is the full decimal suffix after the verb, so "r10".."r12" address
// the two-digit pins the same way single-digit commands address 2..9.
func Parse(line string) (Command, Reason) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Command{}, ReasonEmptyLine
	}

	verb := line[0]
	if verb != VerbRead && verb != VerbClear {
		return Command{}, ReasonBadVerb
	}

	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return Command{}, ReasonBadPin
	}

	pin, err := counter.ParsePin(n)
	if err != nil {
		return Command{}, ReasonPinOutOfRange
	}

	return Command{Verb: verb, Pin: pin}, ""
}

// Interpreter executes parsed commands against a counter bank.
type Interpreter struct {
	bank *counter.Bank
}

// NewInterpreter creates an Interpreter owning no state of its own; all
// mutation goes through the bank.
func NewInterpreter(bank *counter.Bank) *Interpreter {
	return &Interpreter{bank: bank}
}

// Handle parses and executes one line. It never returns an error: every
// line resolves to a Handled, HandledReply or Ignored outcome and the
// device keeps running.
func (it *Interpreter) Handle(line string) Outcome {
	cmd, reason := Parse(line)
	if reason != "" {
		return Outcome{Status: StatusIgnored, Reason: reason}
	}

	switch cmd.Verb {
	case VerbRead:
		count := it.bank.Read(cmd.Pin)
		return Outcome{
			Status: StatusHandledReply,
			Reply:  strconv.FormatUint(count, 10) + "\n",
		}
	case VerbClear:
		it.bank.Clear(cmd.Pin)
		return Outcome{Status: StatusHandled}
	}

	// Unreachable: Parse only admits the two verbs.
	return Outcome{Status: StatusIgnored, Reason: ReasonBadVerb}
}
