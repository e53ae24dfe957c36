package memory

import (
	"encoding/json"

	"care-advisor-be/pkg/reference"
)

// SeedRecords returns the built-in success cases and sales scripts used when
// no database is configured.
func SeedRecords() []reference.Record {
	return []reference.Record{
		{
			ID:    "case001",
			Kind:  reference.KindCase,
			Title: "顺产妈妈的完美恢复之旅",
			Date:  "2023-01-15",
			Attributes: reference.Attributes{
				"age":           28,
				"delivery_type": "顺产",
				"child_count":   1,
				"concerns":      []string{"体重恢复", "母乳喂养"},
			},
			Payload: json.RawMessage(`{
				"stay_info": {"package": "高级产后护理套餐", "duration": "28天", "start_date": "2023-01-15", "end_date": "2023-02-12"},
				"results": {
					"weight_recovery": {"before": "65kg", "after": "56kg", "target": "54kg", "achievement": "恢复至目标体重的91%"},
					"breastfeeding": {"before": "困难，乳汁分泌不足", "after": "顺利，纯母乳喂养", "achievement": "成功建立充足奶源"},
					"sleep_quality": {"before": "每晚睡眠不足4小时", "after": "每晚连续睡眠6-7小时", "achievement": "睡眠质量显著提升"}
				},
				"testimonial": "在月子中心的28天是我产后恢复的黄金时期，专业的团队让我能够专注于恢复和照顾宝宝，不必担心其他琐事。我的体重恢复超出预期，母乳喂养也顺利建立，非常感谢中心的每一位工作人员！",
				"images": [
					{"url": "https://example.com/cases/001/before.jpg", "description": "入住前"},
					{"url": "https://example.com/cases/001/after.jpg", "description": "结束时"}
				]
			}`),
		},
		{
			ID:    "case002",
			Kind:  reference.KindCase,
			Title: "剖腹产妈妈的舒适恢复计划",
			Date:  "2023-03-10",
			Attributes: reference.Attributes{
				"age":           32,
				"delivery_type": "剖腹产",
				"child_count":   2,
				"concerns":      []string{"伤口愈合", "肠胃恢复", "睡眠质量"},
			},
			Payload: json.RawMessage(`{
				"stay_info": {"package": "尊享产后护理套餐", "duration": "35天", "start_date": "2023-03-10", "end_date": "2023-04-14"},
				"results": {
					"wound_healing": {"before": "手术后疼痛明显，活动受限", "after": "伤口完全愈合，无不适感", "achievement": "提前一周完成愈合过程"},
					"digestive_system": {"before": "肠胃功能弱，消化不良", "after": "肠胃功能恢复正常，饮食多样化", "achievement": "排便规律，无腹胀不适"},
					"sleep_quality": {"before": "浅眠多梦，易醒", "after": "深度睡眠增加，精力充沛", "achievement": "平均睡眠质量提升60%"}
				},
				"testimonial": "作为二胎剖腹产妈妈，我非常担心恢复问题。选择入住月子中心是我做的最明智的决定！专业的伤口护理和中医调理让我恢复得比想象中快得多。现在我推荐给所有准备生二胎的朋友。",
				"images": [
					{"url": "https://example.com/cases/002/before.jpg", "description": "入住前"},
					{"url": "https://example.com/cases/002/after.jpg", "description": "结束时"}
				]
			}`),
		},
		{
			ID:    "exp001",
			Kind:  reference.KindScript,
			Title: "顺产后体重恢复",
			Attributes: reference.Attributes{
				"delivery_type": "顺产",
				"concerns":      []string{"体重恢复"},
				"child_count":   1,
				"tags":          []string{"顺产", "体重恢复", "产后恢复"},
			},
			Payload: json.RawMessage(`{
				"experience": "针对顺产后关注体重恢复的客户，应着重强调我们的科学饮食计划和专业营养师一对一指导。他们通常希望快速恢复产前身材，可以展示往期客户的恢复案例和数据。",
				"scripts": [
					{"scenario": "初次咨询", "content": "了解到您是顺产，现在特别关注产后体重恢复，这是很多新妈妈的共同诉求。我们中心的膳食由营养师团队定制，针对顺产妈妈的恢复周期科学调配，平均28天内能恢复到孕前体重的85%以上。"},
					{"scenario": "价格顾虑", "content": "我理解您对价格的考虑。不过您想过吗，如果没有专业指导，自行恢复往往会走很多弯路，反而耽误黄金恢复期。我们的服务虽然有一定费用，但提供的是全方位、科学的恢复方案，长期来看是非常划算的投资。"}
				]
			}`),
		},
		{
			ID:    "exp002",
			Kind:  reference.KindScript,
			Title: "母乳喂养困难",
			Attributes: reference.Attributes{
				"concerns":     []string{"母乳喂养"},
				"budget_level": "中高端",
				"tags":         []string{"母乳喂养", "催乳", "新生儿护理"},
			},
			Payload: json.RawMessage(`{
				"experience": "对于母乳喂养有困难的客户，他们的焦虑点主要是担心宝宝营养不足。应强调我们有专业催乳师和哺乳指导，成功率高，并且提供24小时专业护理支持。",
				"scripts": [
					{"scenario": "哺乳困难", "content": "许多妈妈刚开始都会遇到母乳喂养的困难，这非常正常。我们中心的专业催乳师会每天为您进行一对一指导，包括按摩手法教学、正确哺乳姿势指导，90%的妈妈在我们的帮助下成功建立了充足的奶源。"},
					{"scenario": "担心宝宝吃不饱", "content": "我们理解您的担忧。在中心期间，护理团队会全天候观察宝宝的进食和排泄情况，确保宝宝获得充足营养。同时，我们会教您判断宝宝是否吃饱的方法，让您逐渐建立信心。"}
				]
			}`),
		},
	}
}
