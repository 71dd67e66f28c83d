// SPDX-License-Identifier: ice License 1.0

package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ice-blockchain/defender/scenarios"
)

func parseIntent(kind scenarios.Kind, line string) (intent, error) {
	input := strings.ToLower(strings.TrimSpace(line))
	switch input {
	case "q", "quit", "exit":
		return intent{kind: quitIntent}, nil
	case "r", "restart", "play again":
		return intent{kind: restartIntent}, nil
	case "h", "help", "?":
		return intent{kind: helpIntent}, nil
	}
	if kind == scenarios.BinaryKind {
		switch input {
		case "s", "secure":
			return intent{choice: scenarios.JudgmentChoice(scenarios.SecureJudgment)}, nil
		case "x", "surrender":
			return intent{choice: scenarios.JudgmentChoice(scenarios.SurrenderJudgment)}, nil
		default:
			return intent{}, errors.Wrapf(errUnknownInput, "%q", line)
		}
	}
	if len(input) == 1 && input[0] >= 'a' && input[0] <= 'z' {
		return intent{choice: scenarios.OptionChoice(int(input[0] - 'a'))}, nil
	}
	if num, err := strconv.Atoi(input); err == nil && num > 0 {
		return intent{choice: scenarios.OptionChoice(num - 1)}, nil
	}

	return intent{}, errors.Wrapf(errUnknownInput, "%q", line)
}

func helpText(kind scenarios.Kind, completed bool) string {
	if completed {
		return "Type `r` to play again or `q` to quit."
	}
	if kind == scenarios.BinaryKind {
		return "Type `s` to secure, `x` to surrender, `r` to restart or `q` to quit."
	}

	return "Type the letter of your answer, `r` to restart or `q` to quit."
}
