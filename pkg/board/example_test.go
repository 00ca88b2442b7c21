package board_test

import (
	"context"
	"fmt"
	"time"

	"pinscraper/internal/pintest"
	"pinscraper/pkg/board"
	"pinscraper/pkg/pinterest"
)

func ExampleBoard_Pins() {
	site := pintest.NewServer()
	defer site.Close()
	site.AddBoard(&pintest.Board{
		User: "alice",
		Name: "recipes",
		ID:   1234,
		Pins: []pintest.Pin{
			{ID: 3, Title: "Lemon tart", Image: "https://i.pinimg.com/originals/3.jpg"},
			{ID: 2, Title: "Sourdough", Image: "https://i.pinimg.com/originals/2.jpg"},
			{ID: 1, Title: "Apple pie", Image: "https://i.pinimg.com/originals/1.jpg"},
		},
	})

	client := pinterest.NewClient(pinterest.Options{
		BaseURL: site.URL(),
		Timeout: 10 * time.Second,
	})

	ctx := context.Background()
	b, err := board.New(ctx, client, "alice", "recipes")
	if err != nil {
		fmt.Printf("Failed to open board: %v\n", err)
		return
	}

	pins, err := b.Pins(ctx)
	if err != nil {
		fmt.Printf("Failed to fetch pins: %v\n", err)
		return
	}

	oldest := pins[0]
	fmt.Println(oldest.ID, oldest.ResourceLink, oldest.Title)
	// Output: 1 https://i.pinimg.com/originals/1.jpg Apple pie
}
