package flow

import (
	"github.com/hashicorp/go-multierror"
)

// CheckPushSupport verifies that the link through the gate can carry pushed
// packets.
func CheckPushSupport(g *Gate) error {
	start, end, err := linkEnds(g)
	if err != nil {
		return err
	}

	if !end.owner.SupportsPush(end) {
		return NewConfigurationError(end.owner.Name(),
			"doesn't support push on gate %s", end.FullName())
	}

	if !start.owner.SupportsPush(start) {
		return NewConfigurationError(start.owner.Name(),
			"doesn't support push on gate %s", start.FullName())
	}

	if _, ok := end.owner.(Consumer); !ok {
		return NewConfigurationError(end.owner.Name(),
			"is not a consumer but is pushed to through %s", end.FullName())
	}

	return nil
}

// CheckPopSupport verifies that the link through the gate can carry popped
// packets.
func CheckPopSupport(g *Gate) error {
	start, end, err := linkEnds(g)
	if err != nil {
		return err
	}

	if !end.owner.SupportsPop(end) {
		return NewConfigurationError(end.owner.Name(),
			"doesn't support pop on gate %s", end.FullName())
	}

	if !start.owner.SupportsPop(start) {
		return NewConfigurationError(start.owner.Name(),
			"doesn't support pop on gate %s", start.FullName())
	}

	if _, ok := start.owner.(Provider); !ok {
		return NewConfigurationError(start.owner.Name(),
			"is not a provider but is popped from through %s",
			start.FullName())
	}

	return nil
}

func linkEnds(g *Gate) (start, end *Gate, err error) {
	if g.peer == nil {
		return nil, nil, NewConfigurationError(g.owner.Name(),
			"gate %s is not connected", g.FullName())
	}

	if g.dir == Output {
		return g, g.peer, nil
	}

	return g.peer, g, nil
}

// ValidateLinks checks every link of the elements once. A link is valid if
// it can work in push mode or in pop mode. All problems are reported
// together.
func ValidateLinks(elements []Element) error {
	var result *multierror.Error

	for _, e := range elements {
		for _, g := range e.Gates() {
			if !g.IsConnected() {
				if !g.optional {
					result = multierror.Append(result,
						NewConfigurationError(e.Name(),
							"gate %s is not connected", g.FullName()))
				}

				continue
			}

			if g.dir != Output {
				continue
			}

			pushErr := CheckPushSupport(g)
			if pushErr == nil {
				continue
			}

			popErr := CheckPopSupport(g)
			if popErr == nil {
				continue
			}

			result = multierror.Append(result, pushErr, popErr)
		}

		if checker, ok := e.(LinkChecker); ok {
			if err := checker.CheckLinks(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	return result.ErrorOrNil()
}

// IsPushLink tells if the link through the gate can carry pushed packets.
func IsPushLink(g *Gate) bool {
	return CheckPushSupport(g) == nil
}

// IsPopLink tells if the link through the gate can carry popped packets.
func IsPopLink(g *Gate) bool {
	return CheckPopSupport(g) == nil
}
