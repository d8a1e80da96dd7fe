package constants_test

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/custlist/pkg/constants"
)

// Example demonstrates using constants for common operations
func Example() {
	fmt.Printf("Created dir with %o permissions\n", constants.DirPermissions)
	fmt.Printf("Created file with %o permissions\n", constants.FilePermissions)
	// Output:
	// Created dir with 755 permissions
	// Created file with 644 permissions
}

// Example_layouts demonstrates how file names and annotations are stamped
func Example_layouts() {
	at := time.Date(2026, 3, 9, 14, 5, 0, 0, time.UTC)

	export := strings.ReplaceAll(constants.DefaultCSVPattern, constants.StampPlaceholder, at.Format(constants.FileStampLayout))
	fmt.Println(export)
	fmt.Println(at.Format(constants.DateLayout) + ":updated")
	// Output:
	// output/CustList_2026-03-09_1405.csv
	// 2026-03-09:updated
}
