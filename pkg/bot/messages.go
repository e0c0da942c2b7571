package bot

import "fmt"

// replyCap bounds the command-output reply length in bytes.
const replyCap = 1500

// personaPrompt is the fixed system prompt for the conversational path.
const personaPrompt = `You are a natural, smart, concise assistant.
Always reply in Traditional Chinese (繁體中文).
If the user is asking for computer control, remind them they can use explicit
commands: open Chrome, check the time, list the folder, reboot, or search
YouTube.`

// Fixed user-visible replies for each terminal state.
const (
	msgUnauthorized  = "unauthorized user"
	msgParseFailed   = "intent parsing failed (parser returned non-JSON)"
	msgUnknownAction = "unknown command (not in whitelist)"
	msgMissingQuery  = "please provide a YouTube search keyword"
	msgNoResponse    = "the AI produced no response"
)

func bootstrapReply(userID string) string {
	return fmt.Sprintf("paste this user id into your config as line.allowed_user:\n%s", userID)
}

func searchConfirmation(query string) string {
	return fmt.Sprintf("searching YouTube for: %s", query)
}

func searchRecord(query string) string {
	return fmt.Sprintf("(executed) YouTube search: %s", query)
}

func execRecord(actionID, output string) string {
	return fmt.Sprintf("(executed) %s\n%s", actionID, output)
}

func execFallback(actionID string) string {
	return fmt.Sprintf("executed: %s", actionID)
}

func execFailure(err error) string {
	return fmt.Sprintf("execution failed: %v", err)
}
