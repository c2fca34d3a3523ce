package game

import "testing"

func TestBoardBuyCell(t *testing.T) {
	board := DefaultBoard()

	if err := board.BuyCell(1, "p1"); err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	cell, _ := board.GetCell(1)
	if cell.OwnerID != "p1" {
		t.Fatalf("expected owner p1, got %q", cell.OwnerID)
	}

	// Single-owner invariant: a second buy is rejected.
	if err := board.BuyCell(1, "p2"); err == nil {
		t.Fatal("expected error buying an owned cell")
	}
	cell, _ = board.GetCell(1)
	if cell.OwnerID != "p1" {
		t.Fatalf("ownership changed on rejected buy: %q", cell.OwnerID)
	}
}

func TestBoardBuyCellRejectsUnownable(t *testing.T) {
	board := DefaultBoard()
	for _, pos := range []int{0, 2, 4, 10, 20, 22} {
		if err := board.BuyCell(pos, "p1"); err == nil {
			t.Errorf("expected error buying cell %d", pos)
		}
	}
	if err := board.BuyCell(99, "p1"); err == nil {
		t.Fatal("expected error for out-of-range position")
	}
}

func TestBoardSellCellRefund(t *testing.T) {
	board := DefaultBoard()
	mustBuyGroup(t, board, "p1", 1, 3)

	for i := 0; i < 2; i++ {
		if _, err := board.AddImprovement(1, "p1"); err != nil {
			t.Fatalf("improve 1: %v", err)
		}
		if _, err := board.AddImprovement(3, "p1"); err != nil {
			t.Fatalf("improve 3: %v", err)
		}
	}

	// price/2 + improvements*cost/2 = 60/2 + 2*50/2 = 80
	refund, err := board.SellCell(1, "p1")
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if refund != 80 {
		t.Fatalf("expected refund 80, got %d", refund)
	}
	cell, _ := board.GetCell(1)
	if cell.OwnerID != "" || cell.Improvements != 0 {
		t.Fatalf("cell not reset after sale: %+v", cell)
	}
}

func TestBoardSellMortgagedCellSkipsPriceRefund(t *testing.T) {
	board := DefaultBoard()
	if err := board.BuyCell(5, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := board.MortgageCell(5, "p1"); err != nil {
		t.Fatal(err)
	}
	refund, err := board.SellCell(5, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if refund != 0 {
		t.Fatalf("expected zero refund for mortgaged sale, got %d", refund)
	}
}

func TestBoardMortgageCycle(t *testing.T) {
	board := DefaultBoard()
	if err := board.BuyCell(6, "p1"); err != nil {
		t.Fatal(err)
	}

	loan, err := board.MortgageCell(6, "p1")
	if err != nil {
		t.Fatalf("mortgage failed: %v", err)
	}
	if loan != 50 {
		t.Fatalf("expected loan 50, got %d", loan)
	}
	if _, err := board.MortgageCell(6, "p1"); err == nil {
		t.Fatal("expected error double-mortgaging")
	}

	cost, err := board.UnmortgageCell(6, "p1")
	if err != nil {
		t.Fatalf("unmortgage failed: %v", err)
	}
	if cost != 50 {
		t.Fatalf("expected repayment 50, got %d", cost)
	}
	if _, err := board.UnmortgageCell(6, "p1"); err == nil {
		t.Fatal("expected error unmortgaging a clear cell")
	}
}

func TestBoardMortgageRequiresNoImprovements(t *testing.T) {
	board := DefaultBoard()
	mustBuyGroup(t, board, "p1", 1, 3)
	if _, err := board.AddImprovement(1, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := board.MortgageCell(1, "p1"); err == nil {
		t.Fatal("expected error mortgaging an improved cell")
	}
}

func TestBoardImprovementRequiresMonopoly(t *testing.T) {
	board := DefaultBoard()
	if err := board.BuyCell(1, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := board.AddImprovement(1, "p1"); err == nil {
		t.Fatal("expected error improving without the monopoly")
	}
}

func TestBoardImprovementGroupBalance(t *testing.T) {
	board := DefaultBoard()
	mustBuyGroup(t, board, "p1", 6, 8, 9)

	if _, err := board.AddImprovement(6, "p1"); err != nil {
		t.Fatal(err)
	}
	// Second level on the same cell while siblings sit at zero.
	if _, err := board.AddImprovement(6, "p1"); err == nil {
		t.Fatal("expected group balance error")
	}
	if _, err := board.AddImprovement(8, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := board.AddImprovement(9, "p1"); err != nil {
		t.Fatal(err)
	}
	// Now all at one, a second level is fine.
	if _, err := board.AddImprovement(6, "p1"); err != nil {
		t.Fatalf("expected improvement after leveling group: %v", err)
	}

	// Removal must come off the group maximum.
	if _, err := board.RemoveImprovement(8, "p1"); err == nil {
		t.Fatal("expected error removing below group maximum")
	}
	refund, err := board.RemoveImprovement(6, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if refund != 25 {
		t.Fatalf("expected refund 25, got %d", refund)
	}
}

func TestBoardBuildResidence(t *testing.T) {
	board := DefaultBoard()
	mustBuyGroup(t, board, "p1", 1, 3)

	if _, err := board.BuildResidence(1, "p1"); err == nil {
		t.Fatal("expected error building residence on unimproved group")
	}

	maxLevels := 5
	for i := 0; i < maxLevels; i++ {
		if _, err := board.AddImprovement(1, "p1"); err != nil {
			t.Fatal(err)
		}
		if _, err := board.AddImprovement(3, "p1"); err != nil {
			t.Fatal(err)
		}
	}

	cost, err := board.BuildResidence(1, "p1")
	if err != nil {
		t.Fatalf("residence failed: %v", err)
	}
	if cost != 100 {
		t.Fatalf("expected residence cost 100, got %d", cost)
	}
	if _, err := board.BuildResidence(1, "p1"); err == nil {
		t.Fatal("expected error on second residence")
	}

	// A residence blocks improvement removal on its cell.
	if _, err := board.RemoveImprovement(1, "p1"); err == nil {
		t.Fatal("expected error removing under a residence")
	}
}

func TestBoardTransferAndRelease(t *testing.T) {
	board := DefaultBoard()
	if err := board.BuyCell(11, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := board.MortgageCell(11, "p1"); err != nil {
		t.Fatal(err)
	}

	if err := board.TransferProperty(11, "p2", "p3"); err == nil {
		t.Fatal("expected error transferring from non-owner")
	}
	if err := board.TransferProperty(11, "p1", "p2"); err != nil {
		t.Fatal(err)
	}
	cell, _ := board.GetCell(11)
	if cell.OwnerID != "p2" || !cell.Mortgaged {
		t.Fatalf("transfer should preserve mortgage state: %+v", cell)
	}

	board.ReleaseProperty(11)
	cell, _ = board.GetCell(11)
	if cell.OwnerID != "" || cell.Mortgaged {
		t.Fatalf("release should clear all state: %+v", cell)
	}
}

func TestBoardOwnsGroup(t *testing.T) {
	board := DefaultBoard()
	if err := board.BuyCell(6, "p1"); err != nil {
		t.Fatal(err)
	}
	if err := board.BuyCell(8, "p1"); err != nil {
		t.Fatal(err)
	}
	if board.OwnsGroup("p1", "cobalt") {
		t.Fatal("two of three cells should not be a monopoly")
	}
	if err := board.BuyCell(9, "p1"); err != nil {
		t.Fatal(err)
	}
	if !board.OwnsGroup("p1", "cobalt") {
		t.Fatal("expected full cobalt monopoly")
	}
	if board.OwnsGroup("p1", "") {
		t.Fatal("empty group never forms a monopoly")
	}
}

func TestBoardOwnedPositions(t *testing.T) {
	board := DefaultBoard()
	for _, pos := range []int{13, 1, 5} {
		if err := board.BuyCell(pos, "p1"); err != nil {
			t.Fatal(err)
		}
	}
	got := board.OwnedPositions("p1")
	want := []int{1, 5, 13}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected board order %v, got %v", want, got)
		}
	}
}

func mustBuyGroup(t *testing.T, board *Board, playerID string, positions ...int) {
	t.Helper()
	for _, pos := range positions {
		if err := board.BuyCell(pos, playerID); err != nil {
			t.Fatalf("buy %d: %v", pos, err)
		}
	}
}
