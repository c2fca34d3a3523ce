package game

// DefaultCells returns the standard 24-cell board layout.
func DefaultCells() []*Cell {
	return []*Cell{
		{Position: 0, Name: "Start", Type: CellStart},
		{Position: 1, Name: "Harbor Lane", Type: CellProperty, Group: "amber", Price: 60,
			Rents: []int{2, 10, 30, 90, 160, 250}, ImprovementCost: 50, ResidenceCost: 100},
		{Position: 2, Name: "Chance", Type: CellChance},
		{Position: 3, Name: "Dockside Row", Type: CellProperty, Group: "amber", Price: 60,
			Rents: []int{4, 20, 60, 180, 320, 450}, ImprovementCost: 50, ResidenceCost: 100},
		{Position: 4, Name: "City Tax", Type: CellTax, TaxAmount: 100},
		{Position: 5, Name: "North Station", Type: CellTransport, Price: 100, RentFactor: 0.25},
		{Position: 6, Name: "Mill Street", Type: CellProperty, Group: "cobalt", Price: 100,
			Rents: []int{6, 30, 90, 270, 400, 550}, ImprovementCost: 50, ResidenceCost: 120},
		{Position: 7, Name: "Street Fair", Type: CellMicroEvent},
		{Position: 8, Name: "Foundry Road", Type: CellProperty, Group: "cobalt", Price: 100,
			Rents: []int{6, 30, 90, 270, 400, 550}, ImprovementCost: 50, ResidenceCost: 120},
		{Position: 9, Name: "Granary Square", Type: CellProperty, Group: "cobalt", Price: 120,
			Rents: []int{8, 40, 100, 300, 450, 600}, ImprovementCost: 50, ResidenceCost: 120},
		{Position: 10, Name: "Jail", Type: CellJail},
		{Position: 11, Name: "Market Cross", Type: CellProperty, Group: "crimson", Price: 140,
			Rents: []int{10, 50, 150, 450, 625, 750}, ImprovementCost: 100, ResidenceCost: 160},
		{Position: 12, Name: "Power Works", Type: CellUtility, Price: 150, RentFactor: 0.3},
		{Position: 13, Name: "Guild Hall", Type: CellProperty, Group: "crimson", Price: 140,
			Rents: []int{10, 50, 150, 450, 625, 750}, ImprovementCost: 100, ResidenceCost: 160},
		{Position: 14, Name: "Cathedral Walk", Type: CellProperty, Group: "crimson", Price: 160,
			Rents: []int{12, 60, 180, 500, 700, 900}, ImprovementCost: 100, ResidenceCost: 160},
		{Position: 15, Name: "South Station", Type: CellTransport, Price: 100, RentFactor: 0.25},
		{Position: 16, Name: "Garden Terrace", Type: CellProperty, Group: "emerald", Price: 180,
			Rents: []int{14, 70, 200, 550, 750, 950}, ImprovementCost: 100, ResidenceCost: 200},
		{Position: 17, Name: "Contract Office", Type: CellContract},
		{Position: 18, Name: "Observatory Hill", Type: CellProperty, Group: "emerald", Price: 180,
			Rents: []int{14, 70, 200, 550, 750, 950}, ImprovementCost: 100, ResidenceCost: 200},
		{Position: 19, Name: "Courthouse", Type: CellTrial, TaxAmount: 50},
		{Position: 20, Name: "Free Parking", Type: CellParking},
		{Position: 21, Name: "Palace Gardens", Type: CellProperty, Group: "saffron", Price: 220,
			Rents: []int{18, 90, 250, 700, 875, 1050}, ImprovementCost: 150, ResidenceCost: 240},
		{Position: 22, Name: "Go To Jail", Type: CellGoToJail},
		{Position: 23, Name: "Royal Promenade", Type: CellProperty, Group: "saffron", Price: 220,
			Rents: []int{18, 90, 250, 700, 875, 1050}, ImprovementCost: 150, ResidenceCost: 240},
	}
}

// DefaultBoard constructs a board over the standard layout.
func DefaultBoard() *Board {
	return NewBoard(DefaultCells())
}
