package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"nazigi-sms/database"
	"nazigi-sms/models/broadcast"
	"nazigi-sms/models/passenger"
	"nazigi-sms/models/response"
	"nazigi-sms/models/smslog"
)

// Maintenance command: wipes all service data. Run with
//
//	go run tools/clear.go clear
func main() {
	if len(os.Args) < 2 || os.Args[1] != "clear" {
		fmt.Println("Usage:")
		fmt.Println("  go run tools/clear.go clear   - Delete ALL passengers, responses, broadcasts and SMS logs")
		return
	}

	fmt.Print("⚠️  This deletes ALL service data. Type 'yes' to continue: ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.TrimSpace(answer) != "yes" {
		fmt.Println("Aborted.")
		return
	}

	db, err := database.InitDB()
	if err != nil {
		fmt.Printf("❌ Failed to connect to the database: %v\n", err)
		os.Exit(1)
	}

	// Children first so foreign keys never block the delete.
	steps := []struct {
		name  string
		model interface{}
	}{
		{"passenger responses", &response.PassengerResponse{}},
		{"conductor messages", &broadcast.Broadcast{}},
		{"SMS logs", &smslog.SMSLog{}},
		{"passengers", &passenger.Passenger{}},
	}

	for _, step := range steps {
		result := db.Where("1 = 1").Delete(step.model)
		if result.Error != nil {
			fmt.Printf("❌ Failed to clear %s: %v\n", step.name, result.Error)
			os.Exit(1)
		}
		fmt.Printf("🗑️  Cleared %d %s\n", result.RowsAffected, step.name)
	}

	fmt.Println("✅ Database cleared successfully!")
}
