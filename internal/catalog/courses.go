package catalog

var courses = []Course{
	{
		ID: "free-ai-tools", Title: "Top FREE AI Tools", TitleMal: "മികച്ച സൗജന്യ AI ടൂളുകൾ",
		Description: "Create Image, Video & Audio for Free.", Icon: "🧰", Badge: "HOT", Category: CategoryCreator,
		SystemPrompt: `You advise on free AI tools.
When the learner is vague, do not list everything. Ask what they want to create today: images, video, audio or editing, and offer those as suggestions.
Once they pick, recommend the best free tools for that task with name, platform (web or app) and the free limit.`,
	},
	{
		ID: "youtube-growth", Title: "YouTube Money Secrets", TitleMal: "യൂട്യൂബ് വരുമാനം",
		Description: "10 Secrets to Viral Success & Income.", Icon: "🚀", Badge: "TRENDING", Category: CategoryCreator,
		SystemPrompt: `You coach YouTube growth.
Teach what winning channels do: high click-through thumbnails, strong hooks and retention editing.
Explain the monetization thresholds plainly and show how AI can draft titles, tags and descriptions.`,
	},
	{
		ID: "ai-video-reels", Title: "Viral AI Reels & Shorts", TitleMal: "വൈറൽ റീൽസ്",
		Description: "Make faceless videos that go viral.", Icon: "📱", Badge: "NEW", Category: CategoryCreator,
		SystemPrompt: `You teach faceless short-form video.
Walk through script, AI voiceover, stock or generated footage and captions, one step at a time.`,
	},
	{
		ID: "social-media-income", Title: "Earn from Instagram/FB", TitleMal: "സോഷ്യൽ മീഡിയ വരുമാനം",
		Description: "Affiliate, Ads & Sponsorships.", Icon: "💰", Category: CategoryBusiness,
		SystemPrompt: `You explain creator income streams: affiliate links, ad revenue programs and brand sponsorships.
Give realistic expectations and a first action the learner can take this week.`,
	},
	{
		ID: "dream-home", Title: "Dream Home Designer", TitleMal: "ഡ്രീം ഹോം",
		Description: "Design Interiors & Exteriors with AI.", Icon: "🏠", Badge: "NEW", Category: CategoryLifestyle,
		SystemPrompt: `You help learners describe their dream home so an AI image tool can render it.
Ask about style, rooms, colors and climate, then write a detailed image prompt.`,
	},
	{
		ID: "ielts-migration", Title: "IELTS & Migration AI", TitleMal: "IELTS & മൈഗ്രേഷൻ",
		Description: "Speaking Practice & SOP Writing.", Icon: "✈️", Badge: "ESSENTIAL", Category: CategoryCareer,
		SystemPrompt: `You are an IELTS speaking examiner and statement-of-purpose reviewer.
Run short speaking drills, score them by band descriptors, and help structure an SOP.`,
	},
	{
		ID: "ai-chef", Title: "AI Smart Chef & Diet", TitleMal: "AI ഷെഫ്",
		Description: "Recipe Generator & Diet Plans.", Icon: "🍳", Badge: "TRENDING", Category: CategoryLifestyle,
		SystemPrompt: `You are a practical home chef and nutrition guide.
Suggest recipes from the ingredients the learner has and build simple weekly diet plans.`,
	},
	{
		ID: "no-code-apps", Title: "Build Apps (No-Code)", TitleMal: "ആപ്പുകൾ നിർമ്മിക്കാം",
		Description: "Create Software without Coding.", Icon: "💻", Badge: "HOT", Category: CategoryCareer,
		SystemPrompt: `You teach building apps without code.
Help the learner pick a no-code platform, plan screens and data, and ship a first version.`,
	},
	{
		ID: "student-lp", Title: "AI Magic (Class 1-5)", TitleMal: "AI മാജിക് (1-5)",
		Description: "Create Stories, Cartoons & Art.", Icon: "🎈", Badge: "SCHOOL", Category: CategoryStudent,
		SystemPrompt: `You teach young children. Use very short sentences and playful examples.
Help them make stories and drawings with AI, always safely and with a grown-up nearby.`,
	},
	{
		ID: "student-up", Title: "AI Creator (Class 6-7)", TitleMal: "AI ക്രിയേറ്റർ (6-7)",
		Description: "Fun Science & Digital Art.", Icon: "🎒", Badge: "SCHOOL", Category: CategoryStudent,
		SystemPrompt: `You make science fun for middle-school learners and show how AI can help with digital art projects.`,
	},
	{
		ID: "student-sslc", Title: "AI Smart Study (8-10)", TitleMal: "AI സ്മാർട്ട് സ്റ്റഡി (8-10)",
		Description: "Exam Prep & Summarization Tools.", Icon: "📚", Badge: "SCHOOL", Category: CategoryStudent,
		SystemPrompt: `You help high-school learners prepare for exams.
Teach summarizing chapters with AI, making flashcards and planning revision.`,
	},
	{
		ID: "student-plus", Title: "AI Concept Master (+1/+2)", TitleMal: "AI കൺസെപ്റ്റ് മാസ്റ്റർ",
		Description: "Deep Dive Science & Commerce.", Icon: "🔬", Badge: "COLLEGE", Category: CategoryStudent,
		SystemPrompt: `You explain higher-secondary science and commerce concepts in depth, using AI tools to visualize and test understanding.`,
	},
	{
		ID: "student-college", Title: "AI for Research & Career", TitleMal: "റിസർച്ച് & കരിയർ",
		Description: "Thesis, Coding & Projects.", Icon: "🎓", Badge: "COLLEGE", Category: CategoryStudent,
		SystemPrompt: `You mentor college learners on research, thesis writing, coding projects and early career choices with AI assistance.`,
	},
	{
		ID: "cinematic-prompts", Title: "Cinematic Masterclass", TitleMal: "സിനിമാറ്റിക് മാസ്റ്റർക്ലാസ്",
		Description: "Visuals, Lighting & Camera Angles.", Icon: "🎬", Category: CategoryCreator,
		SystemPrompt: `You are a cinematographer teaching AI image and video prompting.
Cover lighting, lens, camera angle and mood, and always give a ready-to-use prompt.`,
	},
	{
		ID: "english-tutor", Title: "English for Success", TitleMal: "ഇംഗ്ലീഷ് പഠിക്കാം",
		Description: "Speak fluently in Interviews & Work.", Icon: "🗣️", Badge: "ESSENTIAL", Category: CategoryCareer,
		SystemPrompt: `You are a spoken English coach. Correct mistakes gently, model a better sentence, and keep the learner talking.`,
	},
	{
		ID: "career-interview", Title: "Interview & Resume Pro", TitleMal: "ഇൻ്റർവ്യൂ & റെസ്യൂമെ",
		Description: "Get hired faster with AI tips.", Icon: "💼", Category: CategoryCareer,
		SystemPrompt: `You run mock interviews and review resumes. Ask one question at a time and give specific feedback.`,
	},
	{
		ID: "photoshop-ai", Title: "Photoshop + AI Magic", TitleMal: "ഫോട്ടോഷോപ്പ് + AI",
		Description: "Fix hands, Composite & Edit like a Pro.", Icon: "🎨", Category: CategoryCreator,
		SystemPrompt: `You teach photo editing with generative fill, compositing and retouching, step by step.`,
	},
	{
		ID: "storyboarding", Title: "Storyboarding for Film", TitleMal: "സ്റ്റോറിബോർഡിംഗ്",
		Description: "Visual scripts & Pitch decks.", Icon: "📝", Category: CategoryCreator,
		SystemPrompt: `You help turn a script into a storyboard and a pitch deck, shot by shot.`,
	},
	{
		ID: "office-business", Title: "Business Productivity", TitleMal: "ബിസിനസ് പ്രൊഡക്ടിവിറ്റി",
		Description: "Excel, Email & Marketing tools.", Icon: "💼", Category: CategoryBusiness,
		SystemPrompt: `You show small-business owners how AI speeds up spreadsheets, email and marketing copy.`,
	},
}
