package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/loopai/constants/lipgloss"
)

// InputPrompt reads one line of user input, used when no goal file exists.
func InputPrompt(reader *bufio.Reader) (string, error) {
	fmt.Print(lipgloss.BlueSky.Render("> "))

	userInput, err := reader.ReadString('\n')
	if userInput == "" {
		return "", nil
	}

	if err != nil {
		if err == io.EOF {
			return "", nil
		}
		return "", errors.New(lipgloss.Red.Render("error reading input"))
	}

	return strings.TrimSpace(userInput), nil
}

// ConfirmPrompt asks a yes/no question and reports the answer. An empty
// answer counts as yes.
func ConfirmPrompt(reader *bufio.Reader, question string) (bool, error) {
	fmt.Print(lipgloss.BlueSky.Render(fmt.Sprintf("%s [Y/n]: ", question)))

	answer, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.New(lipgloss.Red.Render("error reading input"))
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "" || answer == "y" || answer == "yes", nil
}
