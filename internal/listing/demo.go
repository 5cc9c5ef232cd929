package listing

import (
	"context"
	"time"
)

// Demo returns the seed catalog, newest first.
func Demo() []Listing {
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}

	return []Listing{
		{
			ID:          "1",
			Title:       "Used Engineering Graphics Drafter",
			Description: "A slightly used drafter, perfect for first-year engineering students. All parts are intact and functional.",
			Price:       500,
			Category:    "Books & Supplies",
			ImageURL:    "https://picsum.photos/seed/drafter/600/400",
			SellerName:  "Rohan Sharma",
			SellerEmail: "rohan@davv.ac.in",
			CreatedAt:   at("2023-10-25T10:00:00Z"),
		},
		{
			ID:          "2",
			Title:       "Data Structures and Algorithms Textbook",
			Description: "Core book for CS/IT students. Latest edition, no markings inside. In excellent condition.",
			Price:       350,
			Category:    "Books & Supplies",
			ImageURL:    "https://picsum.photos/seed/textbook/600/400",
			SellerName:  "Priya Verma",
			SellerEmail: "priya@davv.ac.in",
			CreatedAt:   at("2023-10-24T14:30:00Z"),
		},
		{
			ID:          "3",
			Title:       "Scientific Calculator (Casio FX-991ES)",
			Description: "The best calculator for engineering exams. Allowed in most university exams. Works perfectly.",
			Price:       800,
			Category:    "Electronics",
			ImageURL:    "https://picsum.photos/seed/calculator/600/400",
			SellerName:  "Ankit Jain",
			SellerEmail: "ankit@davv.ac.in",
			CreatedAt:   at("2023-10-23T09:00:00Z"),
		},
		{
			ID:          "4",
			Title:       "Hostel Room Cooler",
			Description: "A compact room cooler, great for surviving the Indore summer in your hostel room. Used for one season.",
			Price:       1200,
			Category:    "Hostel Essentials",
			ImageURL:    "https://picsum.photos/seed/cooler/600/400",
			SellerName:  "Priya Verma",
			SellerEmail: "priya@davv.ac.in",
			CreatedAt:   at("2023-10-22T18:00:00Z"),
		},
		{
			ID:          "5",
			Title:       "Lab Coat - Medium Size",
			Description: "Clean, white lab coat. Mandatory for all chemistry and physics labs. No stains.",
			Price:       200,
			Category:    "Books & Supplies",
			ImageURL:    "https://picsum.photos/seed/labcoat/600/400",
			SellerName:  "Rohan Sharma",
			SellerEmail: "rohan@davv.ac.in",
			CreatedAt:   at("2023-10-21T11:45:00Z"),
		},
	}
}

// Seed inserts the demo catalog into an empty store. A store that already
// holds listings is left alone.
func Seed(ctx context.Context, s Store) error {
	existing, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	demo := Demo()
	for i := len(demo) - 1; i >= 0; i-- {
		if err := s.InsertFront(ctx, demo[i]); err != nil {
			return err
		}
	}
	return nil
}
