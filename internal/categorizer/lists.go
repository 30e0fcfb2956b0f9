package categorizer

// Curated app-name lists for fast exact-or-substring classification.
// Negative entries are checked before positive, positive before neutral.
var knownApps = map[string][]string{
	"negative": {
		// Social networks
		"Instagram", "Facebook", "TikTok", "Twitter", "X", "Snapchat", "WhatsApp",
		"Telegram", "Discord", "Reddit", "YouTube", "Pinterest", "LinkedIn", "WeChat",
		"Line", "Viber", "Messenger", "Skype", "Zoom", "Microsoft Teams", "Slack", "Signal",
		"Tumblr", "Flickr", "Twitch", "Mixer", "Clubhouse", "Behance", "Dribbble",
		// Popular games
		"PUBG Mobile", "Fortnite", "Minecraft", "Roblox", "Among Us", "Call of Duty Mobile",
		"FIFA Mobile", "NBA 2K", "Madden NFL", "Pokemon GO", "Angry Birds", "Temple Run",
		"Subway Surfers", "Clash of Clans", "Clash Royale", "Brawl Stars", "Hay Day",
		"Candy Crush Saga", "Candy Crush Soda", "Candy Crush Jelly", "Farm Heroes Saga",
		"Genshin Impact", "Honkai Impact", "Diablo Immortal", "League of Legends: Wild Rift",
		"Mobile Legends", "Free Fire", "BGMI", "Apex Legends Mobile", "Valorant",
		// Entertainment
		"Netflix", "Hulu", "Disney+", "Disney Plus", "Prime Video", "HBO", "HBO Max",
		"Paramount+", "Peacock", "Crunchyroll", "Funimation", "Viki", "Discovery+",
		"ESPN", "Fox Sports", "beIN Sports",
	},
	"positive": {
		// Education
		"Duolingo", "Khan Academy", "Coursera", "Udemy", "edX", "Skillshare", "MasterClass",
		"Brilliant", "Memrise", "Babbel", "Busuu", "Rosetta Stone", "Codecademy", "freeCodeCamp",
		"SoloLearn", "Mimo", "Grasshopper", "Scratch", "Typing.com", "Touch Typing",
		// Wellness
		"Headspace", "Calm", "Medito", "Insight Timer", "Waking Up", "Ten Percent Happier",
		"Balance", "Simple Habit", "Smiling Mind", "Stop Breathe Think", "Breathe",
		// Fitness
		"MyFitnessPal", "Strava", "Nike Run Club", "Nike Training Club", "Adidas Running",
		"Runtastic", "RunKeeper", "Endomondo", "Map My Run", "Map My Fitness", "Fitbit",
		"Garmin Connect", "Polar Flow", "Samsung Health", "Google Fit", "Apple Health",
		"Seven", "Home Workout", "Workout", "Yoga", "Pilates", "Zumba",
		// Productivity
		"Todoist", "Notion", "Evernote", "OneNote", "Trello", "Asana", "Monday.com",
		"ClickUp", "Wunderlist", "Things", "OmniFocus", "Habitica", "Forest", "Focus",
		"Pomodoro", "Toggl", "RescueTime", "Freedom", "Cold Turkey", "StayFocusd",
		// Reading
		"Kindle", "Audible", "Goodreads", "Pocket", "Medium", "Blinkist", "Instapaper",
		"Readwise", "Feedly", "Inoreader",
	},
	"neutral": {
		"LifeSync Games", "Gmail", "Chrome", "Safari", "Firefox", "Edge", "Maps", "Google Maps", "Waze",
		"Calendar", "Clock", "Calculator", "Settings", "Camera", "Photos", "Files",
		"Mail", "Outlook", "Yahoo Mail", "ProtonMail", "Weather", "Translator",
	},
}

// Keyword sets matched as whole words with optional suffix extension
// ("game" matches "gaming" but not "image").
var categoryKeywords = map[string][]string{
	"negative": {
		// Social
		"instagram", "facebook", "tiktok", "twitter", "x.com", "snapchat", "whatsapp",
		"telegram", "discord", "reddit", "youtube", "pinterest", "linkedin", "wechat",
		"line", "viber", "messenger", "skype", "zoom", "teams", "slack", "signal",
		"tumblr", "flickr", "myspace", "periscope", "vine", "clubhouse", "behance",
		"dribbble", "deviantart", "twitch", "mixer", "onlyfans", "patreon",
		// Games
		"game", "juego", "play", "gaming", "gamer", "arcade", "puzzle", "casino",
		"poker", "blackjack", "slot", "bet", "apuesta", "lotto", "lottery",
		"candy", "crush", "clash", "pubg", "fortnite", "minecraft", "roblox",
		"among us", "call of duty", "fifa", "nba", "madden", "nhl", "pes",
		"pokemon go", "angry birds", "temple run", "subway surfers", "clash of clans",
		"clash royale", "brawl stars", "hay day", "boom beach", "coc", "cr",
		"apex", "valorant", "league of legends", "wild rift", "mobile legends",
		"free fire", "bgmi", "cod mobile", "genshin impact", "honkai", "diablo",
		// Entertainment
		"netflix", "hulu", "disney+", "disney plus", "prime video", "hbo",
		"hbo max", "paramount", "peacock", "crunchyroll", "funimation",
		"viki", "discovery+", "espn", "fox sports", "bein sports",
		// Gambling
		"bet365", "betfair", "william hill", "ladbrokes", "paddy power", "betway",
	},
	"positive": {
		// Education
		"duolingo", "khan academy", "coursera", "udemy", "edx", "skillshare",
		"masterclass", "brilliant", "memrise", "babbel", "busuu", "rosetta",
		"codecademy", "freecodecamp", "sololearn", "mimo", "grasshopper",
		"scratch", "typing", "touch typing", "speed typing",
		// Wellness
		"headspace", "calm", "medito", "insight timer", "waking up", "ten percent",
		"balance", "simple habit", "smiling mind", "stop breathe think", "breathe",
		"meditation", "mindfulness", "yoga", "zen", "om", "chakra",
		// Fitness
		"myfitnesspal", "strava", "nike run", "nike training", "adidas running",
		"runtastic", "runkeeper", "endomondo", "map my run", "map my fitness",
		"fitbit", "garmin", "polar", "samsung health", "google fit", "apple health",
		"seven", "home workout", "workout", "fitness", "gym", "exercise",
		"pilates", "zumba", "dance", "running", "cycling", "swimming",
		// Productivity
		"todoist", "notion", "evernote", "onenote", "trello", "asana",
		"monday", "clickup", "monday.com", "wunderlist", "things", "omnifocus",
		"habitica", "forest", "focus", "pomodoro", "toggl", "rescuetime",
		"freedom", "cold turkey", "stayfocusd", "leechblock",
		// Reading
		"kindle", "audible", "goodreads", "pocket", "medium", "blinkist", "summarize",
		"instapaper", "readwise", "read it later", "feedly", "inoreader", "news",
		"book", "ebook", "pdf reader", "epub",
		// Personal development
		"habit tracker", "habit", "journal", "diary", "daylio", "mood", "emotion",
		"gratitude", "reflection", "self care", "selfcare", "therapy", "counseling",
	},
	"neutral": {
		// System
		"settings", "configuración", "system", "sistema", "phone", "teléfono",
		"contacts", "contactos", "calendar", "calendario", "clock", "reloj",
		"alarm", "alarma", "timer", "cronómetro", "stopwatch", "calculator",
		"calculadora", "notes", "notas", "files", "archivos", "file manager",
		"gallery", "galería", "photos", "fotos", "camera", "cámara", "video",
		"recorder", "grabadora", "voice", "voz", "recording",
		// Communication
		"gmail", "mail", "correo", "email", "outlook", "yahoo mail",
		"protonmail", "thunderbird", "spark",
		// Browsers
		"chrome", "safari", "firefox", "edge", "opera", "brave", "duckduckgo",
		"browser", "navegador", "web", "internet",
		// Maps
		"maps", "mapas", "google maps", "waze", "here", "mapquest", "tomtom",
		"navigation", "navegación", "gps", "directions", "direcciones",
		// Utilities
		"weather", "clima", "tiempo", "translator", "traductor", "translate",
		"dictionary", "diccionario", "thesaurus", "converter", "convertidor",
	},
}
