package catalog

var downloads = []Download{
	{
		ID: "dl_1", Title: "50 Cinematic AI Prompts", Description: "Copy-paste prompts for Midjourney/Firefly.",
		Icon: "🎬", Filename: "Cinematic_Prompts_Pack.txt", MinLevel: 1,
		Content: `CINEMATIC PROMPTS PACK
----------------------
1. Wide establishing shot, golden hour, anamorphic lens flare, 35mm film grain.
2. Low-angle hero shot, rim light, stormy sky, shallow depth of field.
3. Overhead shot of a rainy neon street, reflections, teal and orange grade.
`,
	},
	{
		ID: "dl_2", Title: "YouTube Viral Checklist", Description: "10 Steps before you upload a video.",
		Icon: "🚀", Filename: "YouTube_Checklist.txt", MinLevel: 2,
		Content: `YOUTUBE UPLOAD CHECKLIST
------------------------
1. Thumbnail: high contrast, a clear face, three words or fewer.
2. Title: curiosity plus a concrete benefit.
3. First 10 seconds: state the payoff.
`,
	},
	{
		ID: "dl_3", Title: "Freelance Email Templates", Description: "Get clients on Upwork/Fiverr.",
		Icon: "✉️", Filename: "Client_Emails.txt", MinLevel: 3,
		Content: `FREELANCE EMAIL TEMPLATES
-------------------------
SUBJECT: An idea for [Client]'s project

Hi [Name], I looked at [project] and noticed [specific detail]. I can help with [outcome] in [timeframe].
`,
	},
}

// Themes lists the accepted UI theme ids.
var Themes = []string{
	"whatsapp", "blue", "purple", "orange", "red", "pink",
	"teal", "gold", "slate", "indigo-deep", "forest", "dark",
}

// DefaultTheme is applied when no theme was stored.
const DefaultTheme = "whatsapp"
