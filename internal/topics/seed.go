package topics

// Catalog names.
const (
	CatalogAspects   = "aspects"
	CatalogScenarios = "scenarios"
)

// aspectsCatalog covers gameplay aspects for 3v3 coaching tips.
// 40 items across 4 categories (10 each).
var aspectsCatalog = Catalog{
	Name:        CatalogAspects,
	Description: "Rocket League 3v3 gameplay aspects for coaching tips",
	Categories: []Category{
		{
			Name: "mechanics",
			Labels: []string{
				"aerial control optimization",
				"ground dribbling mastery",
				"wall-play execution",
				"recovery techniques",
				"boost management efficiency",
				"flip reset mechanics",
				"ceiling shot execution",
				"air dribble control",
				"power shot accuracy",
				"advanced flicks",
			},
		},
		{
			Name: "strategy",
			Labels: []string{
				"rotation optimization",
				"boost control systems",
				"pressure maintenance",
				"defensive positioning",
				"offensive setups",
				"transition plays",
				"kickoff strategies",
				"possession control",
				"space creation",
				"counter-attack execution",
			},
		},
		{
			Name: "game_sense",
			Labels: []string{
				"challenge timing",
				"fake play execution",
				"demo integration",
				"boost denial tactics",
				"passing play setups",
				"shot selection",
				"save techniques",
				"aerial challenge decisions",
				"pressure application",
				"momentum management",
			},
		},
		{
			Name: "team_play",
			Labels: []string{
				"communication systems",
				"rotation synchronization",
				"boost coordination",
				"defensive coverage",
				"offensive coordination",
				"transition timing",
				"challenge coordination",
				"recovery rotations",
				"pressure maintenance",
				"position adaptations",
			},
		},
	},
}

// scenariosCatalog covers in-match situations for tactical advice.
// 40 items across 4 categories (10 each).
var scenariosCatalog = Catalog{
	Name:        CatalogScenarios,
	Description: "Rocket League 3v3 match scenarios for tactical advice",
	Categories: []Category{
		{
			Name: "defensive_scenarios",
			Labels: []string{
				"opponent has possession near our goal",
				"teammate missed a save",
				"last defender facing 2v1",
				"low boost in defense",
				"defending against air dribble",
				"opponent setting up ceiling shot",
				"teammate overcommitted upfield",
				"multiple opponents attacking",
				"recovery after demo in defense",
				"backboard defense pressure",
			},
		},
		{
			Name: "offensive_scenarios",
			Labels: []string{
				"possession in opponent's corner",
				"high boost with ball control",
				"teammate centered the ball",
				"opponent double committed",
				"zero boost in offense",
				"passing play opportunity",
				"counter-attack transition",
				"opponent missed clear",
				"slow rolling ball midfield",
				"offensive demo opportunity",
			},
		},
		{
			Name: "midfield_scenarios",
			Labels: []string{
				"contested 50/50 ball",
				"rotating back post",
				"boost starved rotation",
				"challenging aerial play",
				"intercepting pass play",
				"transition after kickoff",
				"maintaining offensive pressure",
				"supporting aggressive teammate",
				"recovering from bump",
				"coordinating team rotation",
			},
		},
		{
			Name: "special_situations",
			Labels: []string{
				"overtime kickoff",
				"low boost kickoff",
				"defending 1 goal lead",
				"trailing by 2 goals",
				"teammate disconnected",
				"opponent playing passive",
				"teammate ball chasing",
				"zero second gameplay",
				"post-demo recovery",
				"boost starved endgame",
			},
		},
	},
}
