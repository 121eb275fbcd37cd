package sms

import (
	"fmt"

	"nazigi-sms/config"
)

// Passenger-facing message texts. Keyword and shortcode vary per
// deployment, so every text is built from configuration.

func optInPromptMessage(cfg *config.Config) string {
	return fmt.Sprintf("Welcome to %s!\n\n"+
		"Would you like to opt?\n\n"+
		"Reply:\n"+
		"1 to Opt In\n"+
		"2 to Opt Out", cfg.ServiceName)
}

func optInConfirmedMessage(cfg *config.Config) string {
	return fmt.Sprintf("Thank you for opting in!\n\n"+
		"You will now receive updates from %s conductors.\n\n"+
		"To opt out anytime, send STOP to %s.", cfg.ServiceName, cfg.ATShortcode)
}

func optOutConfirmedMessage(cfg *config.Config) string {
	return fmt.Sprintf("You have been opted out from %s.\n\n"+
		"To opt in again, send %s to %s.", cfg.ServiceName, cfg.OptInKeyword, cfg.ATShortcode)
}

func notRegisteredMessage() string {
	return "You are not registered in our service."
}

func optInRequiredMessage(cfg *config.Config) string {
	return fmt.Sprintf("Please opt in first by sending %s to %s.", cfg.OptInKeyword, cfg.ATShortcode)
}

func stopConfirmedMessage(cfg *config.Config, stop string) string {
	return fmt.Sprintf("✅ Confirmed! You will be picked up at %s.\n\n"+
		"Thank you for using %s!", stop, cfg.ServiceName)
}

func invalidStopNumberMessage(stopCount int) string {
	return fmt.Sprintf("Invalid stop number. Please select a number between 1 and %d.", stopCount)
}

func unknownStopMessage(menu string) string {
	return "Sorry, I didn't understand that stop.\n\n" + menu
}
