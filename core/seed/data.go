package seed

import "github.com/koinonia-app/koinonia/core/content"

var (
	maleNames = []string{
		"Kwame", "Kofi", "Yaw", "Kwabena", "Kwaku", "Kojo", "Emmanuel", "Samuel", "Daniel", "Joseph",
		"David", "Isaac", "Michael", "Stephen", "Benjamin", "Peter", "John", "Richard", "Francis", "Eric",
	}
	femaleNames = []string{
		"Ama", "Akosua", "Abena", "Adwoa", "Efua", "Yaa", "Esi", "Grace", "Mercy", "Comfort",
		"Patience", "Gifty", "Esther", "Ruth", "Deborah", "Hannah", "Priscilla", "Elizabeth", "Joyce", "Mary",
	}
	lastNames = []string{
		"Mensah", "Owusu", "Boateng", "Asante", "Osei", "Agyeman", "Appiah", "Darko", "Ofori", "Addo",
		"Amoah", "Danquah", "Frimpong", "Nkrumah", "Quaye", "Tetteh", "Badu", "Sarpong", "Annan", "Ansah",
	}
	phonePrefixes = []string{"20", "24", "26", "27", "50", "54", "55", "59"}
	occupations   = []string{
		"Teacher", "Nurse", "Trader", "Engineer", "Student", "Accountant", "Farmer", "Driver",
		"Civil servant", "Pharmacist", "Tailor", "Carpenter", "Banker", "Retired", "Entrepreneur",
	}
	streets       = []string{"Liberation Road", "Ring Road", "Oxford Street", "Spintex Road", "Castle Road", "Kanda Highway"}
	cities        = []string{"Accra", "Kumasi", "Tema", "Takoradi", "Cape Coast", "Koforidua"}
	relationships = []string{"Spouse", "Parent", "Sibling", "Child", "Friend"}
	payees        = []string{
		"Electricity Company", "Ghana Water", "Office Mart", "City Builders Ltd", "Sound & Light Services",
		"Print Hub", "Metro Transport", "Staff payroll",
	}
	venues    = []string{"Main auditorium", "Fellowship hall", "Church grounds", "Youth centre", "Conference room"}
	preachers = []string{"Rev. Samuel Mensah", "Pastor Grace Owusu", "Elder Daniel Asante", "Rev. Dr. Joseph Boateng"}

	eventTemplates = []struct {
		title, description, category string
		allDay                       bool
	}{
		{"Harvest thanksgiving", "Annual harvest and thanksgiving service.", content.CategoryService, false},
		{"Youth conference", "Three days of worship, teaching and fellowship for the youth.", content.CategoryConference, true},
		{"Community outreach", "Health screening and food distribution in the community.", content.CategoryOutreach, true},
		{"Men's breakfast", "Fellowship breakfast for the men's ministry.", content.CategoryFellowship, false},
		{"Women's fellowship", "Monthly meeting of the women's ministry.", content.CategoryFellowship, false},
		{"Leaders' meeting", "Quarterly meeting of the church leadership.", content.CategoryMeeting, false},
		{"Night of prayer", "All night prayer and worship.", content.CategoryService, false},
		{"Choir concert", "Evening of praise with the church choir.", content.CategoryOther, false},
		{"Children's camp", "Holiday camp for the children's ministry.", content.CategoryOutreach, true},
		{"Marriage seminar", "Teaching session for married and engaged couples.", content.CategoryConference, false},
	}

	sermonTemplates = []struct {
		title, scripture, series, summary string
		tags                              []string
	}{
		{"Walking by faith", "2 Corinthians 5:7", "Faith", "Trusting God beyond what we see.", []string{"faith", "trust"}},
		{"The good shepherd", "John 10:11-18", "I am", "Jesus knows and cares for his sheep.", []string{"jesus", "care"}},
		{"Salt and light", "Matthew 5:13-16", "Sermon on the mount", "Living out our faith in the world.", []string{"witness"}},
		{"The prodigal son", "Luke 15:11-32", "Parables", "The father's welcome for the returning son.", []string{"grace", "forgiveness"}},
		{"Be still", "Psalm 46", "Psalms", "Finding rest in God in troubled times.", []string{"peace", "prayer"}},
		{"Fruit of the Spirit", "Galatians 5:22-23", "Faith", "The character the Spirit grows in us.", []string{"holy spirit", "character"}},
		{"Giving with joy", "2 Corinthians 9:6-8", "Stewardship", "God loves a cheerful giver.", []string{"giving", "stewardship"}},
		{"The sower", "Mark 4:1-20", "Parables", "Receiving the word on good soil.", []string{"word", "growth"}},
	}

	postTemplates = []struct {
		title, body string
	}{
		{"Welcome to our new website", "We are glad to share our new website with the church family. Here you will find news, sermons and upcoming events. Stay connected and invite a friend."},
		{"Harvest thanksgiving recap", "Thank you to everyone who came to the harvest thanksgiving. The hall was full and the offering will support the building fund and our outreach programmes."},
		{"Youth conference highlights", "Over three days the youth met for worship, teaching and games. Many made new friends and several gave their lives to Christ."},
		{"Serving the community", "Our outreach team visited the local clinic and distributed food to families in need. Join the next visit by signing up with the welfare department."},
		{"A word on prayer", "Prayer is the breath of the Christian life. This month we invite every member to join the early morning prayer meetings on Wednesdays."},
		{"Choir auditions are open", "The choir is looking for new voices. Auditions hold every Saturday this month after rehearsals in the fellowship hall."},
		{"Building project update", "The roof of the new auditorium is complete. We thank God for the generosity of the congregation and ask for continued support."},
		{"Marriage seminar notes", "The notes from the marriage seminar are now available from the church office. Thank you to the counsellors who led the sessions."},
	}
)
